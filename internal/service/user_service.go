package service

import (
	"context"
	"errors"

	"github.com/yakoovad/perftest-admin/internal/auth"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
)

type UserService struct {
	tx db.Transactor

	users   repository.UserRepository
	refresh auth.RefreshStore
}

func NewUserService(tx db.Transactor) *UserService {
	return &UserService{tx: tx}
}

func (u *UserService) ListUsers(ctx context.Context) ([]*model.User, *Error) {
	repoUsers, err := u.users.List(ctx)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list users")
	}

	users := make([]*model.User, 0, len(repoUsers))
	for _, user := range repoUsers {
		users = append(users, userFromRepo(user))
	}
	return users, nil
}

// PatchUser changes the role and/or the active flag of a user. The user's
// refresh tokens are revoked so the change applies to their next access token.
func (u *UserService) PatchUser(ctx context.Context, userID string, patch *model.UserPatch) (*model.User, *Error) {
	if !validID(userID) {
		return nil, NewServiceError(ErrorCodeNotFound, "user not found")
	}
	if patch.Role == nil && patch.IsActive == nil {
		return nil, NewServiceError(ErrorCodeValidation, "role or isActive is required")
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, NewServiceError(ErrorCodeValidation, "unknown role")
	}

	user, err := u.users.Patch(ctx, &repository.UserPatch{
		ID:       userID,
		Role:     patch.Role,
		IsActive: patch.IsActive,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewServiceError(ErrorCodeNotFound, "user not found")
	}
	if err != nil {
		return nil, unspecified(ctx, err, "failed to update user")
	}

	if err = u.refresh.RemoveUser(ctx, userID); err != nil {
		return nil, unspecified(ctx, err, "failed to revoke refresh tokens")
	}
	return userFromRepo(user), nil
}

func (u *UserService) WithUserRepo(userRepo repository.UserRepository) *UserService {
	u.users = userRepo
	return u
}

func (u *UserService) WithRefreshStore(store auth.RefreshStore) *UserService {
	u.refresh = store
	return u
}
