package authority

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// RegisterUserMessage drives registration from a command bus or seed
// script rather than the HTTP surface.
type RegisterUserMessage struct {
	ClientKey uuid.UUID `json:"client_key"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone_number"`
	// UseHashid derives the user id from the email so repeated seeds
	// stay idempotent.
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo     RepositoryManager
	registry *StrategyRegistry
}

func NewRegisterUserHandler(repo RepositoryManager, registry *StrategyRegistry) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		registry: registry,
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	params := RegisterParams{
		ClientKey: event.ClientKey,
		Username:  getUsername(event.Username, event.Email),
		Password:  event.Password,
		Email:     event.Email,
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Phone:     event.Phone,
	}

	if event.UseHashid && event.Email != "" {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			params.ID = id
		}
	}

	if _, err := RegisterUser(ctx, h.repo, h.registry, params); err != nil {
		return err
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
