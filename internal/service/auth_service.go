package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yakoovad/perftest-admin/internal/auth"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

type AuthService struct {
	tx db.Transactor

	users   repository.UserRepository
	tokens  *auth.Manager
	refresh auth.RefreshStore
}

func NewAuthService(tx db.Transactor) *AuthService {
	return &AuthService{tx: tx}
}

func (a *AuthService) Register(ctx context.Context, reg *model.Registration) (*model.Session, *Error) {
	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to hash password")
	}

	role := reg.Role
	if role == "" {
		role = model.RoleTester
	}

	user := &repository.User{
		ID:           uuid.NewString(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		FullName:     reg.FullName,
		Role:         role,
		IsActive:     true,
	}

	err = a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := a.users.GetByUsername(txCtx, reg.Username); err == nil {
			return NewServiceError(ErrorCodeAlreadyExists, "username already exists")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if _, err := a.users.GetByEmail(txCtx, reg.Email); err == nil {
			return NewServiceError(ErrorCodeAlreadyExists, "email already exists")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		err := a.users.Create(txCtx, user)
		if errors.Is(err, repository.ErrAlreadyExists) {
			return NewServiceError(ErrorCodeAlreadyExists, "username or email already exists")
		}
		return err
	})
	if err != nil {
		return nil, asServiceError(ctx, err, "failed to register user")
	}

	return a.newSession(ctx, user)
}

func (a *AuthService) Login(ctx context.Context, username, password string) (*model.Session, *Error) {
	user, err := a.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewServiceError(ErrorCodeUnauthorized, "invalid username or password")
	case err != nil:
		return nil, unspecified(ctx, err, "failed to get user")
	}

	if err = auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, NewServiceError(ErrorCodeUnauthorized, "invalid username or password")
	}

	if !user.IsActive {
		return nil, NewServiceError(ErrorCodeUserInactive, "user is inactive")
	}

	now := time.Now().UTC()
	patched, err := a.users.Patch(ctx, &repository.UserPatch{
		ID:        user.ID,
		LastLogin: &now,
	})
	if err != nil {
		return nil, unspecified(ctx, err, "failed to update last login")
	}

	return a.newSession(ctx, patched)
}

func (a *AuthService) newSession(ctx context.Context, user *repository.User) (*model.Session, *Error) {
	access, err := a.tokens.Issue(auth.TokenTypeAccess, user.ID, user.Role)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to issue access token")
	}

	refresh, err := a.tokens.Issue(auth.TokenTypeRefresh, user.ID, user.Role)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to issue refresh token")
	}

	if err = a.refresh.Add(ctx, refresh, user.ID, a.tokens.TTL(auth.TokenTypeRefresh)); err != nil {
		return nil, unspecified(ctx, err, "failed to store refresh token")
	}

	return &model.Session{
		Token:        access,
		RefreshToken: refresh,
		User:         userFromRepo(user),
	}, nil
}

// RefreshToken trades a listed refresh token for a new access token.
// A listed token that no longer verifies is removed from the list.
func (a *AuthService) RefreshToken(ctx context.Context, token string) (string, *Error) {
	listed, err := a.refresh.Contains(ctx, token)
	if err != nil {
		return "", unspecified(ctx, err, "failed to check refresh token")
	}
	if !listed {
		return "", NewServiceError(ErrorCodeInvalidRefresh, "invalid refresh token")
	}

	claims, err := a.tokens.VerifyToken(token, auth.TokenTypeRefresh)
	if err != nil {
		a.prune(ctx, token)
		return "", NewServiceError(ErrorCodeInvalidRefresh, "invalid refresh token")
	}

	// The role and active flag may have changed since the token was issued.
	user, err := a.users.Get(ctx, claims.Subject)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		a.prune(ctx, token)
		return "", NewServiceError(ErrorCodeInvalidRefresh, "invalid refresh token")
	case err != nil:
		return "", unspecified(ctx, err, "failed to get user")
	}
	if !user.IsActive {
		a.prune(ctx, token)
		return "", NewServiceError(ErrorCodeUserInactive, "user is inactive")
	}

	access, err := a.tokens.Issue(auth.TokenTypeAccess, user.ID, user.Role)
	if err != nil {
		return "", unspecified(ctx, err, "failed to issue access token")
	}
	return access, nil
}

func (a *AuthService) prune(ctx context.Context, token string) {
	if err := a.refresh.Remove(ctx, token); err != nil {
		logger.FromContext(ctx).Warn("failed to prune refresh token", zap.Error(err))
	}
}

func (a *AuthService) Logout(ctx context.Context, token string) *Error {
	if err := a.refresh.Remove(ctx, token); err != nil {
		return unspecified(ctx, err, "failed to remove refresh token")
	}
	return nil
}

func (a *AuthService) ChangePassword(ctx context.Context, userID, current, next string) *Error {
	user, err := a.users.Get(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NewServiceError(ErrorCodeNotFound, "user not found")
	case err != nil:
		return unspecified(ctx, err, "failed to get user")
	}

	if err = auth.CheckPassword(user.PasswordHash, current); err != nil {
		return NewServiceError(ErrorCodeUnauthorized, "current password is incorrect")
	}

	return a.setPassword(ctx, userID, next)
}

// ForgotPassword mints a reset token when the email is known. Delivery is
// not implemented, so the token is only written to the log.
func (a *AuthService) ForgotPassword(ctx context.Context, email string) *Error {
	user, err := a.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return unspecified(ctx, err, "failed to get user")
	}

	token, err := a.tokens.Issue(auth.TokenTypeReset, user.ID, user.Role)
	if err != nil {
		return unspecified(ctx, err, "failed to issue reset token")
	}

	logger.FromContext(ctx).Info("password reset requested",
		zap.String("user_id", user.ID),
		zap.String("reset_token", token),
	)
	return nil
}

func (a *AuthService) ResetPassword(ctx context.Context, token, password string) *Error {
	claims, err := a.tokens.VerifyToken(token, auth.TokenTypeReset)
	if err != nil {
		return NewServiceError(ErrorCodeBadToken, "invalid or expired reset token")
	}

	if err := a.setPassword(ctx, claims.Subject, password); err != nil {
		if err.Code == ErrorCodeNotFound {
			return NewServiceError(ErrorCodeBadToken, "invalid or expired reset token")
		}
		return err
	}
	return nil
}

// setPassword stores a new hash and revokes the user's refresh tokens.
func (a *AuthService) setPassword(ctx context.Context, userID, password string) *Error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return unspecified(ctx, err, "failed to hash password")
	}

	_, err = a.users.Patch(ctx, &repository.UserPatch{
		ID:           userID,
		PasswordHash: &hash,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NewServiceError(ErrorCodeNotFound, "user not found")
	case err != nil:
		return unspecified(ctx, err, "failed to update password")
	}

	if err = a.refresh.RemoveUser(ctx, userID); err != nil {
		return unspecified(ctx, err, "failed to revoke refresh tokens")
	}
	return nil
}

func (a *AuthService) Me(ctx context.Context, userID string) (*model.User, *Error) {
	user, err := a.users.Get(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewServiceError(ErrorCodeNotFound, "user not found")
	case err != nil:
		return nil, unspecified(ctx, err, "failed to get user")
	}
	return userFromRepo(user), nil
}

// UpdateProfile applies the non-empty fields of the patch.
func (a *AuthService) UpdateProfile(ctx context.Context, userID string, patch *model.ProfilePatch) (*model.User, *Error) {
	repoPatch := &repository.UserPatch{ID: userID}
	if patch.Name != "" {
		repoPatch.FullName = &patch.Name
	}
	if patch.Avatar != "" {
		repoPatch.Avatar = &patch.Avatar
	}
	if patch.Department != "" {
		repoPatch.Department = &patch.Department
	}
	if patch.Position != "" {
		repoPatch.Position = &patch.Position
	}

	user, err := a.users.Patch(ctx, repoPatch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewServiceError(ErrorCodeNotFound, "user not found")
	case err != nil:
		return nil, unspecified(ctx, err, "failed to update profile")
	}
	return userFromRepo(user), nil
}

func (a *AuthService) WithUserRepo(userRepo repository.UserRepository) *AuthService {
	a.users = userRepo
	return a
}

func (a *AuthService) WithTokenManager(tokens *auth.Manager) *AuthService {
	a.tokens = tokens
	return a
}

func (a *AuthService) WithRefreshStore(store auth.RefreshStore) *AuthService {
	a.refresh = store
	return a
}
