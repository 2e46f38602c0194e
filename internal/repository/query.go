package repository

import (
	"context"
	"strings"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/perftest-admin/internal/db"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere in the value.
// Backslash is the default LIKE escape character in postgres.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

type queryBuilder interface {
	Build(ctx context.Context) (string, []any, error)
}

func countRows(ctx context.Context, e db.Executor, table string, where ...bob.Mod[*dialect.SelectQuery]) (int, error) {
	q := psql.Select(
		sm.Columns("count(*)"),
		sm.From(table),
	)
	q.Apply(where...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err = e.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// countGrouped returns row counts keyed by the values of column.
func countGrouped(ctx context.Context, e db.Executor, table, column string) (map[string]int, error) {
	q := psql.Select(
		sm.Columns(column, "count(*)"),
		sm.From(table),
		sm.GroupBy(column),
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

	res := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err = rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		res[key] = n
	}
	return res, rows.Err()
}
