package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/perftest-admin/internal/db"
)

type CsvData struct {
	ID           string     `db:"id"`
	Filename     string     `db:"filename"`
	OriginalName string     `db:"original_name"`
	Description  string     `db:"description"`
	Headers      []string   `db:"headers"`
	Rows         [][]string `db:"data"`
	Size         int64      `db:"size"`
	UploadedBy   string     `db:"uploaded_by"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type CsvDataRepository interface {
	Create(ctx context.Context, data *CsvData) error
	Get(ctx context.Context, id string) (*CsvData, error)
	// List omits the parsed rows.
	List(ctx context.Context) ([]*CsvData, error)
	UpdateDescription(ctx context.Context, id, description string) (*CsvData, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]*CsvData, error)
}

var csvMetaColumns = []any{
	"id", "filename", "original_name", "description", "headers", "size", "uploaded_by", "created_at", "updated_at",
}

var csvFullColumns = append(append([]any{}, csvMetaColumns...), "data")

type pgxCsvDataRepository struct {
	pool *pgxpool.Pool
}

func NewPgxCsvDataRepository(pool *pgxpool.Pool) CsvDataRepository {
	return &pgxCsvDataRepository{pool: pool}
}

func scanCsvMeta(row pgx.Row, extra ...any) (*CsvData, error) {
	d := &CsvData{}
	dest := []any{
		&d.ID,
		&d.Filename,
		&d.OriginalName,
		&d.Description,
		&d.Headers,
		&d.Size,
		&d.UploadedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return d, err
}

func (p *pgxCsvDataRepository) Create(ctx context.Context, data *CsvData) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	rows := data.Rows
	if rows == nil {
		rows = [][]string{}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrap(err, "marshal csv rows")
	}

	q := psql.Insert(
		im.Into("csv_data", "id", "filename", "original_name", "description", "headers", "data", "size", "uploaded_by"),
		im.Values(
			psql.Arg(data.ID), psql.Arg(data.Filename), psql.Arg(data.OriginalName), psql.Arg(data.Description),
			psql.Arg(data.Headers), psql.Arg(raw), psql.Arg(data.Size), psql.Arg(data.UploadedBy),
		),
		im.Returning("created_at", "updated_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if err = e.QueryRow(ctx, sql, args...).Scan(&data.CreatedAt, &data.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (p *pgxCsvDataRepository) Get(ctx context.Context, id string) (*CsvData, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(csvFullColumns...),
		sm.From("csv_data"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	var raw []byte
	d, err := scanCsvMeta(e.QueryRow(ctx, sql, args...), &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err = json.Unmarshal(raw, &d.Rows); err != nil {
		return nil, errors.Wrap(err, "unmarshal csv rows")
	}
	return d, nil
}

func (p *pgxCsvDataRepository) List(ctx context.Context) ([]*CsvData, error) {
	return p.list(ctx, 0)
}

func (p *pgxCsvDataRepository) Recent(ctx context.Context, limit int) ([]*CsvData, error) {
	return p.list(ctx, limit)
}

func (p *pgxCsvDataRepository) list(ctx context.Context, limit int) ([]*CsvData, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(csvMetaColumns...),
		sm.From("csv_data"),
		sm.OrderBy("created_at").Desc(),
	)
	if limit > 0 {
		q.Apply(sm.Limit(int64(limit)))
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*CsvData, error) {
		return scanCsvMeta(row)
	})
}

func (p *pgxCsvDataRepository) UpdateDescription(ctx context.Context, id, description string) (*CsvData, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("csv_data"),
		um.SetCol("description").ToArg(description),
		um.SetCol("updated_at").ToArg(time.Now().UTC()),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Returning(csvMetaColumns...),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	d, err := scanCsvMeta(e.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (p *pgxCsvDataRepository) Delete(ctx context.Context, id string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("csv_data"),
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

func (p *pgxCsvDataRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "csv_data")
}
