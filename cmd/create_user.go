package main

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yakoovad/perftest-admin/internal/auth"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
	"github.com/yakoovad/perftest-admin/internal/service"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

func newCreateUserCommand(a *app) *cobra.Command {
	var (
		reg  model.Registration
		role string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user, an admin by default",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg.Role = model.Role(role)
			if !reg.Role.Valid() {
				return errors.Errorf("unknown role %q", role)
			}
			if err := validator.New().Struct(&reg); err != nil {
				return errors.Wrap(err, "invalid user")
			}

			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			// The session is discarded, so a memory list is enough here.
			authService := service.NewAuthService(db.NewPgxTransactor(pool)).
				WithUserRepo(repository.NewPgxUserRepository(pool)).
				WithTokenManager(a.tokenManager()).
				WithRefreshStore(auth.NewMemoryRefreshStore())

			ctx := logger.WithLogger(cmd.Context(), a.logger)
			session, serr := authService.Register(ctx, &reg)
			if serr != nil {
				return serr
			}

			a.logger.Info("user created", zap.String("user_id", session.User.ID),
				zap.String("username", session.User.Username), zap.String("role", string(session.User.Role)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&reg.Username, "username", "", "login name")
	flags.StringVar(&reg.Email, "email", "", "email address")
	flags.StringVar(&reg.Password, "password", "", "initial password")
	flags.StringVar(&reg.FullName, "full-name", "", "display name")
	flags.StringVar(&role, "role", string(model.RoleAdmin), "admin, manager, tester or viewer")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
