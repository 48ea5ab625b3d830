package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB implements DB for testing. Behavior is keyed on SQL substrings so
// tests can script individual statements without a live database.
type fakeDB struct {
	// Error configuration (substring of the SQL -> error)
	execErrs  map[string]error
	queryErrs map[string]error

	// execHook, when set, is consulted first for every Exec so tests can
	// fail statements based on their arguments.
	execHook func(sql string, args []any) error

	// Scripted results (substring of the SQL -> result)
	queryResults map[string]*fakeRows
	rowResults   map[string]*fakeRow

	beginErr error

	// Call tracking
	execLog   []string
	queryLog  []string
	queryArgs [][]any
	tx        *fakeTx
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execLog = append(db.execLog, sql)
	if db.execHook != nil {
		if err := db.execHook(sql, args); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	for sub, err := range db.execErrs {
		if strings.Contains(sql, sub) {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.queryLog = append(db.queryLog, sql)
	db.queryArgs = append(db.queryArgs, args)
	for sub, err := range db.queryErrs {
		if strings.Contains(sql, sub) {
			return nil, err
		}
	}
	for sub, rows := range db.queryResults {
		if strings.Contains(sql, sub) {
			return rows, nil
		}
	}
	return &fakeRows{}, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	db.queryLog = append(db.queryLog, sql)
	for sub, row := range db.rowResults {
		if strings.Contains(sql, sub) {
			return row
		}
	}
	return &fakeRow{err: pgx.ErrNoRows}
}

func (db *fakeDB) Begin(_ context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	db.tx = &fakeTx{db: db}
	return db.tx, nil
}

// execCount returns how many executed statements contain the substring.
func (db *fakeDB) execCount(sub string) int {
	n := 0
	for _, sql := range db.execLog {
		if strings.Contains(sql, sub) {
			n++
		}
	}
	return n
}

// fakeRow implements pgx.Row with fixed values.
type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.values, dest)
}

// fakeRows implements pgx.Rows over in-memory row values.
type fakeRows struct {
	rows    [][]any
	idx     int
	err     error
	scanErr error
	closed  bool
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	return scanInto(r.rows[r.idx-1], dest)
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

// fakeTx implements pgx.Tx by delegating statements to the fakeDB. Nested
// Begin models savepoints the way pgx does.
type fakeTx struct {
	db         *fakeDB
	committed  bool
	rolledBack bool
	savepoints []*fakeTx
}

func (t *fakeTx) Begin(_ context.Context) (pgx.Tx, error) {
	sp := &fakeTx{db: t.db}
	t.savepoints = append(t.savepoints, sp)
	return sp, nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (t *fakeTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }

func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (t *fakeTx) Conn() *pgx.Conn { return nil }

// scanInto copies scripted row values into scan destinations.
func scanInto(src []any, dest []any) error {
	if len(src) != len(dest) {
		return fmt.Errorf("scan column count mismatch: %d values, %d destinations", len(src), len(dest))
	}
	for i, v := range src {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *bool:
			*d = v.(bool)
		case *int64:
			*d = v.(int64)
		case *float64:
			*d = v.(float64)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported scan destination type %T", dest[i])
		}
	}
	return nil
}
