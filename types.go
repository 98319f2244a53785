package authority

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds middleware and token options
type Config interface {
	GetTokenExpiration() int
	GetClientKeyHeader() string
	GetAuthScheme() string
	GetContextKey() string
	GetSkipPaths() []string
}

// KeySource resolves the verification keys a request's client key maps to.
type KeySource interface {
	PublicKeysByClientKey(ctx context.Context, clientKey uuid.UUID) ([]PublicKey, error)
}

// GrantFlattener is the slice of the resolver the credential strategies
// need: compute a principal's grant tree.
type GrantFlattener interface {
	ByUserID(ctx context.Context, realmID, userID uuid.UUID) (*GrantTree, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHORITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHORITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHORITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHORITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
