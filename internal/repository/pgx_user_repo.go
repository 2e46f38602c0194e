package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
)

type User struct {
	ID           string     `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FullName     string     `db:"full_name"`
	Role         model.Role `db:"role"`
	Avatar       string     `db:"avatar"`
	Department   string     `db:"department"`
	Position     string     `db:"position"`
	IsActive     bool       `db:"is_active"`
	LastLogin    *time.Time `db:"last_login"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type UserPatch struct {
	ID           string      `db:"id"`
	PasswordHash *string     `db:"password_hash"`
	FullName     *string     `db:"full_name"`
	Role         *model.Role `db:"role"`
	Avatar       *string     `db:"avatar"`
	Department   *string     `db:"department"`
	Position     *string     `db:"position"`
	IsActive     *bool       `db:"is_active"`
	LastLogin    *time.Time  `db:"last_login"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, userID string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Patch(ctx context.Context, patch *UserPatch) (*User, error)
	Count(ctx context.Context) (int, error)
}

var userColumns = []any{
	"id", "username", "email", "password_hash", "full_name", "role", "avatar",
	"department", "position", "is_active", "last_login", "created_at", "updated_at",
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgxUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgxUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Role,
		&u.Avatar,
		&u.Department,
		&u.Position,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// Create inserts a user and fills the generated timestamps.
func (p *pgxUserRepository) Create(ctx context.Context, user *User) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("users", "id", "username", "email", "password_hash", "full_name", "role",
			"avatar", "department", "position", "is_active"),
		im.Values(
			psql.Arg(user.ID), psql.Arg(user.Username), psql.Arg(user.Email), psql.Arg(user.PasswordHash),
			psql.Arg(user.FullName), psql.Arg(user.Role), psql.Arg(user.Avatar), psql.Arg(user.Department),
			psql.Arg(user.Position), psql.Arg(user.IsActive),
		),
		im.Returning("created_at", "updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if err = e.QueryRow(ctx, sql, args...).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (p *pgxUserRepository) Get(ctx context.Context, userID string) (*User, error) {
	return p.getBy(ctx, "id", userID)
}

func (p *pgxUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return p.getBy(ctx, "username", username)
}

func (p *pgxUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return p.getBy(ctx, "email", email)
}

func (p *pgxUserRepository) getBy(ctx context.Context, column string, value string) (*User, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(userColumns...),
		sm.From("users"),
		sm.Where(psql.Quote(column).EQ(psql.Arg(value))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (p *pgxUserRepository) List(ctx context.Context) ([]*User, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(userColumns...),
		sm.From("users"),
		sm.OrderBy("created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*User, error) {
		return scanUser(row)
	})
}

func (p *pgxUserRepository) Patch(ctx context.Context, patch *UserPatch) (*User, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 9)
	if patch.PasswordHash != nil {
		sets = append(sets, um.SetCol("password_hash").ToArg(*patch.PasswordHash))
	}
	if patch.FullName != nil {
		sets = append(sets, um.SetCol("full_name").ToArg(*patch.FullName))
	}
	if patch.Role != nil {
		sets = append(sets, um.SetCol("role").ToArg(*patch.Role))
	}
	if patch.Avatar != nil {
		sets = append(sets, um.SetCol("avatar").ToArg(*patch.Avatar))
	}
	if patch.Department != nil {
		sets = append(sets, um.SetCol("department").ToArg(*patch.Department))
	}
	if patch.Position != nil {
		sets = append(sets, um.SetCol("position").ToArg(*patch.Position))
	}
	if patch.IsActive != nil {
		sets = append(sets, um.SetCol("is_active").ToArg(*patch.IsActive))
	}
	if patch.LastLogin != nil {
		sets = append(sets, um.SetCol("last_login").ToArg(*patch.LastLogin))
	}
	sets = append(sets, um.SetCol("updated_at").ToArg(time.Now().UTC()))

	q := psql.Update(
		um.Table("users"),
		um.Where(psql.Quote("id").EQ(psql.Arg(patch.ID))),
		um.Returning(userColumns...),
	)

	q.Apply(sets...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return u, nil
}

func (p *pgxUserRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "users")
}
