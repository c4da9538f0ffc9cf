package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/msomdec/jobly/internal/domain"
	"github.com/msomdec/jobly/internal/repository/sqlite/migrations"
)

// sqliteHeader is the magic string every SQLite database image starts with.
var sqliteHeader = []byte("SQLite format 3\x00")

// Row is a single result row keyed by column name.
type Row map[string]any

// Result reports the outcome of a mutating statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// DB owns the single in-memory SQLite instance for the process.
//
// All access goes through one dedicated connection guarded by mu, so each
// statement, transaction and export runs to completion before the next one
// starts. State only reaches disk through Checkpoint.
type DB struct {
	mu     sync.Mutex
	sqlDB  *sql.DB
	conn   *sql.Conn
	fresh  bool
	closed bool
}

// queryer is satisfied by both *sql.Conn and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type serializer interface {
	Serialize() ([]byte, error)
}

// restorer is the modernc connection's backup API in restore direction.
type restorer interface {
	NewRestore(srcURI string) (*sqlitedriver.Backup, error)
}

// Load reads the database image at path into a new in-memory database.
// When no file exists an empty database is created and Fresh reports true.
// An existing file that is not a valid image fails with ErrStorageCorrupt;
// a zero-length file is accepted as an empty database.
func Load(ctx context.Context, path string) (*DB, error) {
	fresh := false
	var size int64
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fresh = true
	case err != nil:
		return nil, fmt.Errorf("stat database image: %w", err)
	default:
		size = info.Size()
	}

	if size > 0 {
		if err := checkHeader(path); err != nil {
			return nil, err
		}
	}

	db, err := open(ctx)
	if err != nil {
		return nil, err
	}
	db.fresh = fresh

	if size > 0 {
		if err := db.restore(ctx, path); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := db.configure(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if fresh {
		slog.Info("new in-memory database created", "path", path)
	} else {
		slog.Info("database loaded", "path", path, "bytes", size)
	}
	return db, nil
}

// NewMemory returns an empty in-memory database that is not backed by a file.
func NewMemory(ctx context.Context) (*DB, error) {
	db, err := open(ctx)
	if err != nil {
		return nil, err
	}
	db.fresh = true
	if err := db.configure(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func open(ctx context.Context) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to :memory: is a distinct database, so the pool is
	// pinned to the single connection held below.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	return &DB{sqlDB: sqlDB, conn: conn}, nil
}

func (db *DB) configure(ctx context.Context) error {
	// Enable foreign key enforcement. The pragma is per connection and is not
	// part of the image, so it is applied after every load.
	if _, err := db.conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	return nil
}

// checkHeader rejects files that do not start with the SQLite magic string
// before the driver ever opens them.
func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read database image: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated sqlite header", domain.ErrStorageCorrupt)
		}
		return fmt.Errorf("read database image: %w", err)
	}
	if !bytes.Equal(header, sqliteHeader) {
		return fmt.Errorf("%w: missing sqlite header", domain.ErrStorageCorrupt)
	}
	return nil
}

// restore copies every page of the file at path into the in-memory database
// with SQLite's online backup API, then runs an integrity check. The file is
// opened read-only.
func (db *DB) restore(ctx context.Context, path string) error {
	src := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}).String()

	err := db.conn.Raw(func(driverConn any) error {
		r, ok := driverConn.(restorer)
		if !ok {
			return fmt.Errorf("driver %T cannot restore", driverConn)
		}

		b, err := r.NewRestore(src)
		if err != nil {
			return classify(err)
		}

		more := true
		for more && err == nil {
			more, err = b.Step(-1)
		}
		return errors.Join(classify(err), classify(b.Finish()))
	})
	if err != nil {
		if errors.Is(err, domain.ErrStorageCorrupt) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrStorageCorrupt, err)
	}

	var check string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&check); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageCorrupt, err)
	}
	if check != "ok" {
		return fmt.Errorf("%w: integrity check: %s", domain.ErrStorageCorrupt, check)
	}
	return nil
}

// Fresh reports whether Load found no existing file, meaning the schema was
// created from scratch and seed data is still due.
func (db *DB) Fresh() bool {
	return db.fresh
}

// Query runs a read statement and returns every row. The cursor is always
// drained and closed before Query returns.
func (db *DB) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, domain.ErrHandleClosed
	}
	return queryRows(ctx, db.conn, query, args...)
}

// Exec runs a mutating statement.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return Result{}, domain.ErrHandleClosed
	}
	return execStatement(ctx, db.conn, query, args...)
}

// Ping runs a trivial statement to confirm the handle is usable.
func (db *DB) Ping(ctx context.Context) error {
	_, err := db.Query(ctx, "SELECT 1")
	return err
}

// Tx is an open transaction handed to WithTx callbacks.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return queryRows(ctx, t.tx, query, args...)
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return execStatement(ctx, t.tx, query, args...)
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise (including on panic). No other statement can run
// on the handle until it finishes.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	return db.withRawTx(ctx, func(tx *sql.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

func (db *DB) withRawTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return domain.ErrHandleClosed
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	committed = true
	return nil
}

// Migrate ensures every table and index exists. Safe to call repeatedly.
func (db *DB) Migrate(ctx context.Context) error {
	return db.withRawTx(ctx, func(tx *sql.Tx) error {
		return migrations.Run(ctx, tx)
	})
}

// EnsureSchema migrates and reports whether the database was freshly
// created by Load.
func (db *DB) EnsureSchema(ctx context.Context) (bool, error) {
	if err := db.Migrate(ctx); err != nil {
		return false, err
	}
	return db.fresh, nil
}

// Export serializes the entire in-memory database.
func (db *DB) Export(ctx context.Context) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, domain.ErrHandleClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var image []byte
	err := db.conn.Raw(func(driverConn any) error {
		s, ok := driverConn.(serializer)
		if !ok {
			return fmt.Errorf("driver %T cannot serialize", driverConn)
		}
		b, err := s.Serialize()
		if err != nil {
			return err
		}
		image = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("serialize database: %w", err)
	}
	return image, nil
}

// newImageMode is the permission of an image file written for the first time.
const newImageMode fs.FileMode = 0o644

// Checkpoint exports the database and replaces the file at path with the
// image. The write goes to a temporary file in the same directory that is
// then renamed over path, keeping the permissions of the file it replaces.
func (db *DB) Checkpoint(ctx context.Context, path string) error {
	image, err := db.Export(ctx)
	if err != nil {
		return err
	}

	mode := newImageMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat database image: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp image: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp image: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace database image: %w", err)
	}
	if err := syncDir(dir); err != nil {
		return fmt.Errorf("sync image directory: %w", err)
	}

	slog.Info("database saved", "path", path, "bytes", len(image))
	return nil
}

// syncDir flushes the directory entry so the rename survives a power loss.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Close releases the in-memory database. Further calls on the handle fail
// with ErrHandleClosed. Closing twice is a no-op.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true
	return errors.Join(db.conn.Close(), db.sqlDB.Close())
}

// Users returns a UserRepository backed by this database.
func (db *DB) Users() domain.UserRepository {
	return NewUserRepository(db)
}

// Jobs returns a JobRepository backed by this database.
func (db *DB) Jobs() domain.JobRepository {
	return NewJobRepository(db)
}

// Applications returns an ApplicationRepository backed by this database.
func (db *DB) Applications() domain.ApplicationRepository {
	return NewApplicationRepository(db)
}

func queryRows(ctx context.Context, q queryer, query string, args ...any) ([]Row, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				vals[i] = bytes.Clone(b)
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func execStatement(ctx context.Context, q queryer, query string, args ...any) (Result, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, classify(err)
	}

	// Both values are best effort; the driver always supplies them.
	var out Result
	out.RowsAffected, _ = res.RowsAffected()
	out.LastInsertID, _ = res.LastInsertId()
	return out, nil
}

// classify maps SQLite result codes onto the domain error taxonomy.
func classify(err error) error {
	var se *sqlitedriver.Error
	if !errors.As(err, &se) {
		return err
	}

	// Extended result codes carry the primary code in the low byte.
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return fmt.Errorf("%w: %w", domain.ErrConstraintViolation, err)
	case sqlite3.SQLITE_ERROR:
		return fmt.Errorf("%w: %w", domain.ErrQuerySyntax, err)
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return fmt.Errorf("%w: %w", domain.ErrStorageCorrupt, err)
	}
	return err
}
