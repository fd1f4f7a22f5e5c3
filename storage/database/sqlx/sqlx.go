// Package sqlxrepos implements the repositories on Postgres with jmoiron/sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edubridge/backoffice/core"
)

// persistenceErr wraps err as a core.PersistenceError. sql.ErrNoRows becomes notFound when given.
func persistenceErr(op string, err error, notFound ...error) error {
	if err == nil {
		return nil
	}
	if len(notFound) > 0 && errors.Is(err, sql.ErrNoRows) {
		return notFound[0]
	}
	return core.NewPersistenceError(op, err)
}

// in expands the IN clauses of query and rebinds it for Postgres.
func in(db *sqlx.DB, query string, args ...interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(query), args, nil
}

// orderBy renders the ordering clause, skipping fields missing from columns.
func orderBy(columns map[string]string, fallback string, ordering ...core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(clauses) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func rowsAffected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

type batch struct {
	start, end int
}

// batches splits n items into consecutive [start, end) ranges of at most size items.
func batches(n, size int) []batch {
	if size <= 0 {
		size = n
	}
	var out []batch
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, batch{start: start, end: end})
	}
	return out
}

func execIn(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (sql.Result, error) {
	query, args, err := in(db, query, args...)
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, query, args...)
}
