package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
)

type Tag struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Color       string    `db:"color"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

type TagRepository interface {
	// Ensure returns the tags with the given names, creating the missing ones.
	Ensure(ctx context.Context, names []string) ([]*Tag, error)
	Get(ctx context.Context, id string) (*Tag, error)
	GetByName(ctx context.Context, name string) (*Tag, error)
	List(ctx context.Context) ([]*Tag, error)
	ListByKnowledge(ctx context.Context, knowledgeIDs []string) (map[string][]*Tag, error)
	Attach(ctx context.Context, knowledgeID string, tagIDs []string) error
	Detach(ctx context.Context, knowledgeID, tagID string) error
}

var tagColumns = []any{"id", "name", "color", "description", "created_at"}

type pgxTagRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTagRepository(pool *pgxpool.Pool) TagRepository {
	return &pgxTagRepository{pool: pool}
}

func scanTag(row pgx.Row, extra ...any) (*Tag, error) {
	t := &Tag{}
	dest := []any{&t.ID, &t.Name, &t.Color, &t.Description, &t.CreatedAt}
	err := row.Scan(append(dest, extra...)...)
	return t, err
}

func (p *pgxTagRepository) Ensure(ctx context.Context, names []string) ([]*Tag, error) {
	if len(names) == 0 {
		return []*Tag{}, nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	ins := psql.Insert(
		im.Into("tags", "id", "name", "color"),
		im.OnConflict("name").DoNothing(),
	)
	for _, name := range names {
		ins.Apply(im.Values(psql.Arg(uuid.NewString()), psql.Arg(name), psql.Arg(model.DefaultTagColor)))
	}

	sql, args, err := ins.Build(ctx)
	if err != nil {
		return nil, err
	}
	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}

	q := psql.Select(
		sm.Columns(tagColumns...),
		sm.From("tags"),
		sm.Where(psql.Raw("name = ANY(?)", names)),
		sm.OrderBy("name"),
	)
	return p.query(ctx, e, q)
}

func (p *pgxTagRepository) Get(ctx context.Context, id string) (*Tag, error) {
	return p.getBy(ctx, "id", id)
}

func (p *pgxTagRepository) GetByName(ctx context.Context, name string) (*Tag, error) {
	return p.getBy(ctx, "name", name)
}

func (p *pgxTagRepository) getBy(ctx context.Context, column, value string) (*Tag, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(tagColumns...),
		sm.From("tags"),
		sm.Where(psql.Quote(column).EQ(psql.Arg(value))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	t, err := scanTag(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (p *pgxTagRepository) List(ctx context.Context) ([]*Tag, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(tagColumns...),
		sm.From("tags"),
		sm.OrderBy("name"),
	)
	return p.query(ctx, e, q)
}

func (p *pgxTagRepository) query(ctx context.Context, e db.Executor, q queryBuilder) ([]*Tag, error) {
	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Tag, error) {
		return scanTag(row)
	})
}

// ListByKnowledge groups the tags of the given articles by article id.
func (p *pgxTagRepository) ListByKnowledge(ctx context.Context, knowledgeIDs []string) (map[string][]*Tag, error) {
	res := make(map[string][]*Tag, len(knowledgeIDs))
	if len(knowledgeIDs) == 0 {
		return res, nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("t.id", "t.name", "t.color", "t.description", "t.created_at", "kt.knowledge_id"),
		sm.From("tags").As("t"),
		sm.InnerJoin("knowledge_tags").As("kt").On(psql.Raw("kt.tag_id = t.id")),
		sm.Where(psql.Raw("kt.knowledge_id = ANY(?)", knowledgeIDs)),
		sm.OrderBy("t.name"),
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

	for rows.Next() {
		var knowledgeID string
		t, err := scanTag(rows, &knowledgeID)
		if err != nil {
			return nil, err
		}
		res[knowledgeID] = append(res[knowledgeID], t)
	}
	return res, rows.Err()
}

// Attach links tags to an article; already linked tags are skipped.
func (p *pgxTagRepository) Attach(ctx context.Context, knowledgeID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("knowledge_tags", "knowledge_id", "tag_id"),
		im.OnConflict("knowledge_id", "tag_id").DoNothing(),
	)
	for _, tagID := range tagIDs {
		q.Apply(im.Values(psql.Arg(knowledgeID), psql.Arg(tagID)))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (p *pgxTagRepository) Detach(ctx context.Context, knowledgeID, tagID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("knowledge_tags"),
		dm.Where(psql.Quote("knowledge_id").EQ(psql.Arg(knowledgeID)).
			And(psql.Quote("tag_id").EQ(psql.Arg(tagID)))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
