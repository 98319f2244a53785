package authority

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// DefaultClientKeyHeader carries the authority client key.
	DefaultClientKeyHeader = "client-key"
	// DefaultAuthScheme prefixes the bearer credential.
	DefaultAuthScheme = "Bearer"
	// DefaultContextKey is the locals slot verified claims land in.
	DefaultContextKey = "claims"
)

// MiddlewareConfig configures the request authenticator.
type MiddlewareConfig struct {
	// Keys resolves the verification key set for a client key.
	Keys KeySource
	// Tokens verifies bearer tokens. Defaults to a fresh TokenService.
	Tokens *TokenService
	// ClientKeyHeader, AuthScheme and ContextKey fall back to the
	// package defaults when empty.
	ClientKeyHeader string
	AuthScheme      string
	ContextKey      string
	// SkipPaths lists path prefixes that bypass authentication, e.g.
	// the login and registration routes themselves.
	SkipPaths []string
	Logger    Logger
}

// MiddlewareFromConfig builds a MiddlewareConfig from an application
// config, leaving zero-value fields to the package defaults.
func MiddlewareFromConfig(cfg Config, keys KeySource) MiddlewareConfig {
	return MiddlewareConfig{
		Keys:            keys,
		ClientKeyHeader: cfg.GetClientKeyHeader(),
		AuthScheme:      cfg.GetAuthScheme(),
		ContextKey:      cfg.GetContextKey(),
		SkipPaths:       cfg.GetSkipPaths(),
	}
}

// RequestAuthenticator returns a fiber handler that gates requests on a
// verifiable bearer token. CORS preflight and allow-listed path prefixes
// pass through untouched; everything else needs a client key header and a
// bearer token one of the realm's retained keys can verify. Failures are
// a uniform 401 so probes learn nothing about which check tripped.
func RequestAuthenticator(cfg MiddlewareConfig) fiber.Handler {
	if cfg.ClientKeyHeader == "" {
		cfg.ClientKeyHeader = DefaultClientKeyHeader
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = DefaultAuthScheme
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
	if cfg.Tokens == nil {
		cfg.Tokens = NewTokenService(cfg.Logger)
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		path := c.Path()
		for _, prefix := range cfg.SkipPaths {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		clientKey, err := uuid.Parse(c.Get(cfg.ClientKeyHeader))
		if err != nil {
			cfg.Logger.Debug("request rejected: %s", ErrMissingClientKey.Message)
			return unauthorized(c)
		}

		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization), cfg.AuthScheme)
		if !ok {
			cfg.Logger.Debug("request rejected: %s", ErrMissingAuthHeader.Message)
			return unauthorized(c)
		}

		keys, err := cfg.Keys.PublicKeysByClientKey(c.Context(), clientKey)
		if err != nil {
			cfg.Logger.Debug("request rejected: key lookup failed: %v", err)
			return unauthorized(c)
		}

		claims, err := cfg.Tokens.Verify(token, keys)
		if err != nil {
			cfg.Logger.Debug("request rejected: %v", err)
			return unauthorized(c)
		}

		c.Locals(cfg.ContextKey, claims)

		return c.Next()
	}
}

// ClaimsFromContext retrieves the verified claims the middleware attached
// to the request, if any.
func ClaimsFromContext(c *fiber.Ctx, contextKey string) (*Claims, bool) {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	claims, ok := c.Locals(contextKey).(*Claims)
	return claims, ok
}

func bearerToken(header, scheme string) (string, bool) {
	if header == "" {
		return "", false
	}

	prefix := scheme + " "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}

	return token, true
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "unauthorized",
	})
}
