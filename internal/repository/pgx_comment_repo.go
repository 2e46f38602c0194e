package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/perftest-admin/internal/db"
)

type Comment struct {
	ID          string    `db:"id"`
	Content     string    `db:"content"`
	UserID      string    `db:"user_id"`
	KnowledgeID string    `db:"knowledge_id"`
	ParentID    *string   `db:"parent_id"`
	IsEdited    bool      `db:"is_edited"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	Get(ctx context.Context, id string) (*Comment, error)
	ListByKnowledge(ctx context.Context, knowledgeID string) ([]*Comment, error)
}

var commentColumns = []any{
	"id", "content", "user_id", "knowledge_id", "parent_id", "is_edited", "created_at", "updated_at",
}

type pgxCommentRepository struct {
	pool *pgxpool.Pool
}

func NewPgxCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &pgxCommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (*Comment, error) {
	c := &Comment{}
	err := row.Scan(
		&c.ID,
		&c.Content,
		&c.UserID,
		&c.KnowledgeID,
		&c.ParentID,
		&c.IsEdited,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (p *pgxCommentRepository) Create(ctx context.Context, c *Comment) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("comments", "id", "content", "user_id", "knowledge_id", "parent_id"),
		im.Values(
			psql.Arg(c.ID), psql.Arg(c.Content), psql.Arg(c.UserID), psql.Arg(c.KnowledgeID), psql.Arg(c.ParentID),
		),
		im.Returning("created_at", "updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if err = e.QueryRow(ctx, sql, args...).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (p *pgxCommentRepository) Get(ctx context.Context, id string) (*Comment, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(commentColumns...),
		sm.From("comments"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanComment(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (p *pgxCommentRepository) ListByKnowledge(ctx context.Context, knowledgeID string) ([]*Comment, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(commentColumns...),
		sm.From("comments"),
		sm.Where(psql.Quote("knowledge_id").EQ(psql.Arg(knowledgeID))),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Comment, error) {
		return scanComment(row)
	})
}
