package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	pkgAuth "github.com/angelmondragon/sweetdelights-backend/pkg/auth"
	"github.com/angelmondragon/sweetdelights-backend/pkg/auth/session"
	"github.com/angelmondragon/sweetdelights-backend/pkg/db/models"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
)

// signIn marks the browser session as signed in and issues a fresh token pair.
func (s *service) signIn(ctx context.Context, sessionID string, user *models.User) (*LoginResponse, error) {
	isAdmin := s.authCfg.IsAdminEmail(user.Email)
	role := enums.RoleFor(isAdmin)
	profile := store.User{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Addresses: []store.Address{},
		Orders:    []store.Order{},
	}
	if _, err := s.store.SignIn(ctx, sessionID, profile, isAdmin); err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	accessToken, err := s.mint(pkgAuth.AccessTokenPayload{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      role,
		SessionID: sessionID,
		JTI:       accessID,
	})
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id": user.ID.String(),
		"role":    role.String(),
	}), "auth.signed_in")

	return &LoginResponse{
		TokenPair: TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		User:      &profile,
		Role:      role,
		IsAdmin:   isAdmin,
	}, nil
}

// Refresh trades a possibly expired access token and its refresh token for a
// new pair carrying the same identity.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	accessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	switch {
	case errors.Is(err, session.ErrInvalidRefreshToken):
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	accessToken, err := s.mint(pkgAuth.AccessTokenPayload{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		JTI:       accessID,
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout clears the session user and admin flag. accessID is empty when the
// caller holds no token.
func (s *service) Logout(ctx context.Context, sessionID, accessID string) error {
	if _, err := s.store.SignOut(ctx, sessionID); err != nil {
		return err
	}
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) mint(payload pkgAuth.AccessTokenPayload) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}
