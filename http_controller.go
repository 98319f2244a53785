package authority

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

type AuthControllerRoutes struct {
	Authenticate string
	Register     string
}

// AuthController exposes the registration and authentication flows over
// HTTP. The client key travels in the request header on both routes, same
// as on protected routes.
type AuthController struct {
	Debug  bool
	Logger Logger
	Auther *Authenticator
	Routes *AuthControllerRoutes
	// ClientKeyHeader falls back to the package default when empty.
	ClientKeyHeader string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithAuthenticator(auther *Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:          defLogger{},
		ClientKeyHeader: DefaultClientKeyHeader,
		Routes: &AuthControllerRoutes{
			Authenticate: "/auth/authenticate",
			Register:     "/auth/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the controller on a fiber app or router group.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Authenticate, controller.AuthenticatePost)

	return controller
}

// RegistrationPayload is the registration request body.
type RegistrationPayload struct {
	Username  string         `json:"username"`
	Password  string         `json:"password"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Phone     string         `json:"phone_number"`
	Profile   map[string]any `json:"profile"`
}

// Validate will validate the payload
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(&r.Email, validation.Length(6, 100), is.Email),
		validation.Field(&r.FirstName, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(1, 200)),
	)
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	clientKey, err := uuid.Parse(c.Get(a.ClientKeyHeader))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMissingClientKey.Message,
		})
	}

	payload := new(RegistrationPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid payload",
			"validation": err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	user, err := a.Auther.Register(c.Context(), RegisterParams{
		ClientKey: clientKey,
		Username:  payload.Username,
		Password:  payload.Password,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
		Profile:   payload.Profile,
	})
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// AuthenticationPayload is the login request body.
type AuthenticationPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r AuthenticationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) AuthenticatePost(c *fiber.Ctx) error {
	clientKey, err := uuid.Parse(c.Get(a.ClientKeyHeader))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMissingClientKey.Message,
		})
	}

	payload := new(AuthenticationPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("authenticate parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("authenticate validate payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid payload",
			"validation": err.Error(),
		})
	}

	token, err := a.Auther.Login(c.Context(), clientKey, payload.Username, payload.Password)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}

// renderError maps rich error categories to HTTP statuses without leaking
// internals on auth failures.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryAuth:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": richErr.Message,
			})
		case goerrors.CategoryNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": richErr.Message,
			})
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": richErr.Message,
			})
		case goerrors.CategoryConflict:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": richErr.Message,
			})
		}
	}

	a.Logger.Error("auth controller: %v", err)

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}
