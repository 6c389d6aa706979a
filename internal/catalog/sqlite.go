package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/massmap/internal/security"
)

// ReadSQLite loads a catalog of the given format from a table of an sqlite
// database. Columns follow the parquet layout names.
func ReadSQLite(ctx context.Context, path, table string, format Format) (*Catalog, error) {
	if err := security.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	switch format {
	case FormatMetacal:
		rows, err := queryRows(ctx, db, table, metacalColumns, (*metacalRow).fields)
		if err != nil {
			return nil, err
		}
		return fromMetacalRows(rows)
	case FormatShear:
		rows, err := queryRows(ctx, db, table, shearColumns, (*shearRow).fields)
		if err != nil {
			return nil, err
		}
		return fromShearRows(rows)
	}
	return nil, fmt.Errorf("unknown catalog format %q", format)
}

func queryRows[T any](ctx context.Context, db *sql.DB, table string, cols []string, fields func(*T) []any) ([]T, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table)
	rs, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rs.Close()

	var out []T
	for rs.Next() {
		var r T
		if err := rs.Scan(fields(&r)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

// WriteSQLite creates table in the database at path and inserts the catalog.
func WriteSQLite(ctx context.Context, path, table string, c *Catalog, format Format) error {
	if err := security.ValidateIdentifier(table); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	var (
		cols []string
		vals [][]any
	)
	switch format {
	case FormatMetacal:
		rows, err := toMetacalRows(c)
		if err != nil {
			return err
		}
		cols = metacalColumns
		for i := range rows {
			vals = append(vals, deref(rows[i].fields()))
		}
	case FormatShear:
		rows, err := toShearRows(c)
		if err != nil {
			return err
		}
		cols = shearColumns
		for i := range rows {
			vals = append(vals, deref(rows[i].fields()))
		}
	default:
		return fmt.Errorf("unknown catalog format %q", format)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	defs := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = col + " REAL NOT NULL"
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, v := range vals {
		if _, err := stmt.ExecContext(ctx, v...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func deref(ptrs []any) []any {
	out := make([]any, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p.(*float64)
	}
	return out
}
