package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
)

type Knowledge struct {
	ID          string                   `db:"id"`
	Title       string                   `db:"title"`
	Content     string                   `db:"content"`
	HTMLContent string                   `db:"html_content"`
	Summary     string                   `db:"summary"`
	Category    string                   `db:"category"`
	AuthorID    string                   `db:"author_id"`
	Status      model.KnowledgeStatus    `db:"status"`
	ViewCount   int                      `db:"view_count"`
	LikeCount   int                      `db:"like_count"`
	Version     int                      `db:"version"`
	Versions    []model.KnowledgeVersion `db:"version_history"`
	CreatedAt   time.Time                `db:"created_at"`
	UpdatedAt   time.Time                `db:"updated_at"`
}

// KnowledgeQuery filters articles. Tags match when the article carries any of the names.
type KnowledgeQuery struct {
	Status   model.KnowledgeStatus
	Category string
	Text     string
	Tags     []string
	Limit    int
}

type KnowledgeRepository interface {
	Create(ctx context.Context, k *Knowledge) error
	Get(ctx context.Context, id string) (*Knowledge, error)
	List(ctx context.Context, query KnowledgeQuery) ([]*Knowledge, error)
	// Update overwrites every mutable column, including the version history.
	Update(ctx context.Context, k *Knowledge) error
	IncrementViews(ctx context.Context, id string) (int, error)
	IncrementLikes(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

var knowledgeColumns = []any{
	"id", "title", "content", "html_content", "summary", "category", "author_id", "status",
	"view_count", "like_count", "version", "version_history", "created_at", "updated_at",
}

type pgxKnowledgeRepository struct {
	pool *pgxpool.Pool
}

func NewPgxKnowledgeRepository(pool *pgxpool.Pool) KnowledgeRepository {
	return &pgxKnowledgeRepository{pool: pool}
}

func scanKnowledge(row pgx.Row) (*Knowledge, error) {
	k := &Knowledge{}
	var history []byte
	err := row.Scan(
		&k.ID,
		&k.Title,
		&k.Content,
		&k.HTMLContent,
		&k.Summary,
		&k.Category,
		&k.AuthorID,
		&k.Status,
		&k.ViewCount,
		&k.LikeCount,
		&k.Version,
		&history,
		&k.CreatedAt,
		&k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err = json.Unmarshal(history, &k.Versions); err != nil {
			return nil, errors.Wrap(err, "unmarshal version history")
		}
	}
	return k, nil
}

func marshalHistory(versions []model.KnowledgeVersion) ([]byte, error) {
	if versions == nil {
		versions = []model.KnowledgeVersion{}
	}
	raw, err := json.Marshal(versions)
	return raw, errors.Wrap(err, "marshal version history")
}

func (p *pgxKnowledgeRepository) Create(ctx context.Context, k *Knowledge) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	history, err := marshalHistory(k.Versions)
	if err != nil {
		return err
	}

	q := psql.Insert(
		im.Into("knowledge_shares", "id", "title", "content", "html_content", "summary", "category",
			"author_id", "status", "version", "version_history"),
		im.Values(
			psql.Arg(k.ID), psql.Arg(k.Title), psql.Arg(k.Content), psql.Arg(k.HTMLContent), psql.Arg(k.Summary),
			psql.Arg(k.Category), psql.Arg(k.AuthorID), psql.Arg(k.Status), psql.Arg(k.Version), psql.Arg(history),
		),
		im.Returning("created_at", "updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if err = e.QueryRow(ctx, sql, args...).Scan(&k.CreatedAt, &k.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (p *pgxKnowledgeRepository) Get(ctx context.Context, id string) (*Knowledge, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(knowledgeColumns...),
		sm.From("knowledge_shares"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	k, err := scanKnowledge(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return k, nil
}

func (query KnowledgeQuery) where() []bob.Mod[*dialect.SelectQuery] {
	mods := make([]bob.Mod[*dialect.SelectQuery], 0, 4)
	if query.Status != "" {
		mods = append(mods, sm.Where(psql.Quote("status").EQ(psql.Arg(query.Status))))
	}
	if query.Category != "" {
		mods = append(mods, sm.Where(psql.Quote("category").EQ(psql.Arg(query.Category))))
	}
	if query.Text != "" {
		pattern := containsPattern(query.Text)
		mods = append(mods, sm.Where(psql.Raw("(title ILIKE ? OR content ILIKE ?)", pattern, pattern)))
	}
	if len(query.Tags) > 0 {
		mods = append(mods, sm.Where(psql.Raw(
			"id IN (SELECT kt.knowledge_id FROM knowledge_tags kt JOIN tags t ON t.id = kt.tag_id WHERE t.name = ANY(?))",
			query.Tags,
		)))
	}
	return mods
}

func (p *pgxKnowledgeRepository) List(ctx context.Context, query KnowledgeQuery) ([]*Knowledge, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(knowledgeColumns...),
		sm.From("knowledge_shares"),
		sm.OrderBy("updated_at").Desc(),
	)
	q.Apply(query.where()...)
	if query.Limit > 0 {
		q.Apply(sm.Limit(int64(query.Limit)))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Knowledge, error) {
		return scanKnowledge(row)
	})
}

func (p *pgxKnowledgeRepository) Update(ctx context.Context, k *Knowledge) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	history, err := marshalHistory(k.Versions)
	if err != nil {
		return err
	}

	q := psql.Update(
		um.Table("knowledge_shares"),
		um.SetCol("title").ToArg(k.Title),
		um.SetCol("content").ToArg(k.Content),
		um.SetCol("html_content").ToArg(k.HTMLContent),
		um.SetCol("summary").ToArg(k.Summary),
		um.SetCol("category").ToArg(k.Category),
		um.SetCol("status").ToArg(k.Status),
		um.SetCol("version").ToArg(k.Version),
		um.SetCol("version_history").ToArg(history),
		um.SetCol("updated_at").ToArg(time.Now().UTC()),
		um.Where(psql.Quote("id").EQ(psql.Arg(k.ID))),
		um.Returning("updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if err = e.QueryRow(ctx, sql, args...).Scan(&k.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (p *pgxKnowledgeRepository) IncrementViews(ctx context.Context, id string) (int, error) {
	return p.increment(ctx, id, "view_count")
}

func (p *pgxKnowledgeRepository) IncrementLikes(ctx context.Context, id string) (int, error) {
	return p.increment(ctx, id, "like_count")
}

func (p *pgxKnowledgeRepository) increment(ctx context.Context, id, column string) (int, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("knowledge_shares"),
		um.SetCol(column).To(psql.Raw(column+" + 1")),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Returning(column),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err = e.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return n, nil
}

func (p *pgxKnowledgeRepository) Delete(ctx context.Context, id string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("knowledge_shares"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
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

func (p *pgxKnowledgeRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "knowledge_shares")
}
