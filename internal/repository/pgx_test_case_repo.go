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
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
)

type TestCase struct {
	ID              string               `db:"id"`
	Title           string               `db:"title"`
	Steps           string               `db:"steps"`
	ExpectedResults string               `db:"expected_results"`
	Status          model.TestCaseStatus `db:"status"`
	Priority        model.Priority       `db:"priority"`
	Category        string               `db:"category"`
	CreatedBy       string               `db:"created_by"`
	CreatedAt       time.Time            `db:"created_at"`
	UpdatedAt       time.Time            `db:"updated_at"`
}

type TestCasePatch struct {
	ID              string                `db:"id"`
	Title           *string               `db:"title"`
	Steps           *string               `db:"steps"`
	ExpectedResults *string               `db:"expected_results"`
	Status          *model.TestCaseStatus `db:"status"`
	Priority        *model.Priority       `db:"priority"`
	Category        *string               `db:"category"`
}

// TestCaseQuery selects a page of test cases. Limit 0 disables paging.
type TestCaseQuery struct {
	Search   string
	Status   model.TestCaseStatus
	Priority model.Priority
	IDs      []string
	Limit    int
	Offset   int
}

type TestCaseRepository interface {
	Create(ctx context.Context, tc *TestCase) error
	Get(ctx context.Context, id string) (*TestCase, error)
	List(ctx context.Context, query TestCaseQuery) ([]*TestCase, int, error)
	Patch(ctx context.Context, patch *TestCasePatch) (*TestCase, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByPriority(ctx context.Context) (map[string]int, error)
	Recent(ctx context.Context, limit int) ([]*TestCase, error)
}

var testCaseColumns = []any{
	"id", "title", "steps", "expected_results", "status", "priority", "category",
	"created_by", "created_at", "updated_at",
}

type pgxTestCaseRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTestCaseRepository(pool *pgxpool.Pool) TestCaseRepository {
	return &pgxTestCaseRepository{pool: pool}
}

func scanTestCase(row pgx.Row) (*TestCase, error) {
	tc := &TestCase{}
	err := row.Scan(
		&tc.ID,
		&tc.Title,
		&tc.Steps,
		&tc.ExpectedResults,
		&tc.Status,
		&tc.Priority,
		&tc.Category,
		&tc.CreatedBy,
		&tc.CreatedAt,
		&tc.UpdatedAt,
	)
	return tc, err
}

func (p *pgxTestCaseRepository) Create(ctx context.Context, tc *TestCase) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("test_cases", "id", "title", "steps", "expected_results", "status", "priority", "category", "created_by"),
		im.Values(
			psql.Arg(tc.ID), psql.Arg(tc.Title), psql.Arg(tc.Steps), psql.Arg(tc.ExpectedResults),
			psql.Arg(tc.Status), psql.Arg(tc.Priority), psql.Arg(tc.Category), psql.Arg(tc.CreatedBy),
		),
		im.Returning("created_at", "updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if err = e.QueryRow(ctx, sql, args...).Scan(&tc.CreatedAt, &tc.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (p *pgxTestCaseRepository) Get(ctx context.Context, id string) (*TestCase, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(testCaseColumns...),
		sm.From("test_cases"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	tc, err := scanTestCase(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tc, nil
}

func (query TestCaseQuery) where() []bob.Mod[*dialect.SelectQuery] {
	mods := make([]bob.Mod[*dialect.SelectQuery], 0, 4)
	if query.Search != "" {
		pattern := containsPattern(query.Search)
		mods = append(mods, sm.Where(psql.Raw("(title ILIKE ? OR steps ILIKE ?)", pattern, pattern)))
	}
	if query.Status != "" {
		mods = append(mods, sm.Where(psql.Quote("status").EQ(psql.Arg(query.Status))))
	}
	if query.Priority != "" {
		mods = append(mods, sm.Where(psql.Quote("priority").EQ(psql.Arg(query.Priority))))
	}
	if len(query.IDs) > 0 {
		mods = append(mods, sm.Where(psql.Raw("id = ANY(?)", query.IDs)))
	}
	return mods
}

// List returns the requested page, newest first, and the number of rows matching the filter.
func (p *pgxTestCaseRepository) List(ctx context.Context, query TestCaseQuery) ([]*TestCase, int, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	where := query.where()

	total, err := countRows(ctx, e, "test_cases", where...)
	if err != nil {
		return nil, 0, err
	}

	q := psql.Select(
		sm.Columns(testCaseColumns...),
		sm.From("test_cases"),
		sm.OrderBy("updated_at").Desc(),
	)
	q.Apply(where...)
	if query.Limit > 0 {
		q.Apply(sm.Limit(int64(query.Limit)), sm.Offset(int64(query.Offset)))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TestCase, error) {
		return scanTestCase(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (p *pgxTestCaseRepository) Patch(ctx context.Context, patch *TestCasePatch) (*TestCase, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 7)
	if patch.Title != nil {
		sets = append(sets, um.SetCol("title").ToArg(*patch.Title))
	}
	if patch.Steps != nil {
		sets = append(sets, um.SetCol("steps").ToArg(*patch.Steps))
	}
	if patch.ExpectedResults != nil {
		sets = append(sets, um.SetCol("expected_results").ToArg(*patch.ExpectedResults))
	}
	if patch.Status != nil {
		sets = append(sets, um.SetCol("status").ToArg(*patch.Status))
	}
	if patch.Priority != nil {
		sets = append(sets, um.SetCol("priority").ToArg(*patch.Priority))
	}
	if patch.Category != nil {
		sets = append(sets, um.SetCol("category").ToArg(*patch.Category))
	}
	sets = append(sets, um.SetCol("updated_at").ToArg(time.Now().UTC()))

	q := psql.Update(
		um.Table("test_cases"),
		um.Where(psql.Quote("id").EQ(psql.Arg(patch.ID))),
		um.Returning(testCaseColumns...),
	)
	q.Apply(sets...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	tc, err := scanTestCase(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return tc, nil
}

func (p *pgxTestCaseRepository) Delete(ctx context.Context, id string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("test_cases"),
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

func (p *pgxTestCaseRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "test_cases")
}

func (p *pgxTestCaseRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countGrouped(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "test_cases", "status")
}

func (p *pgxTestCaseRepository) CountByPriority(ctx context.Context) (map[string]int, error) {
	return countGrouped(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "test_cases", "priority")
}

func (p *pgxTestCaseRepository) Recent(ctx context.Context, limit int) ([]*TestCase, error) {
	items, _, err := p.List(ctx, TestCaseQuery{Limit: limit})
	return items, err
}
