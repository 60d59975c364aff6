package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/sweetdelights-backend/internal/users"
	"github.com/angelmondragon/sweetdelights-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/security"
	"github.com/angelmondragon/sweetdelights-backend/pkg/simulate"
	"github.com/angelmondragon/sweetdelights-backend/pkg/validate"
	"github.com/google/uuid"
)

// Stable ids for unregistered mock users derive from this namespace.
var mockUserNamespace = uuid.MustParse("6f1c1f7e-3c3a-4d53-9a51-2a8f0b1d5e42")

var errInvalidCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

func (s *service) Login(ctx context.Context, sessionID string, req LoginRequest) (*LoginResponse, error) {
	return s.attempt(ctx, sessionID, "login", req, func(ctx context.Context) (*models.User, error) {
		return s.authenticate(ctx, users.NormalizeEmail(req.Email), req.Password)
	})
}

func (s *service) Register(ctx context.Context, sessionID string, req RegisterRequest) (*LoginResponse, error) {
	return s.attempt(ctx, sessionID, "register", req, func(ctx context.Context) (*models.User, error) {
		return s.register(ctx, req)
	})
}

// attempt validates the form, waits out the simulated round trip, resolves
// the user and signs the session in, counting the outcome under action. Once
// the form is accepted the sign-in completes even if the client goes away.
func (s *service) attempt(ctx context.Context, sessionID, action string, form any, resolve func(context.Context) (*models.User, error)) (*LoginResponse, error) {
	if err := validate.Struct(form); err != nil {
		s.metrics.IncAuthAttempt(action, "invalid")
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	if err := simulate.Delay(ctx, s.delay); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "simulated sign-in")
	}
	user, err := resolve(ctx)
	if err != nil {
		s.metrics.IncAuthAttempt(action, outcomeOf(err))
		return nil, err
	}
	resp, err := s.signIn(ctx, sessionID, user)
	if err != nil {
		return nil, err
	}
	s.metrics.IncAuthAttempt(action, "success")
	return resp, nil
}

func outcomeOf(err error) string {
	switch pkgerrors.As(err).Code() {
	case pkgerrors.CodeUnauthorized:
		return "rejected"
	case pkgerrors.CodeConflict:
		return "conflict"
	}
	return "error"
}

// authenticate checks a registered user's password. Unknown emails become mock
// users when mock login is allowed.
func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		if !s.authCfg.AllowMockLogin {
			return nil, errInvalidCredentials
		}
		return mockUser(email), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, errInvalidCredentials
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	return user, nil
}

func (s *service) register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return user, nil
}

// mockUser is named after the email's local part.
func mockUser(email string) *models.User {
	name, _, _ := strings.Cut(email, "@")
	return &models.User{
		ID:    uuid.NewSHA1(mockUserNamespace, []byte(email)),
		Email: email,
		Name:  name,
	}
}
