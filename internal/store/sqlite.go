package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/typesystem"
	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// DB keeps a world in SQLite, one row per typespec and per function, each
// holding the entity's tagged JSON encoding.
type DB struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// Open connects to the SQLite database at dsn, a file path or MemoryDSN.
func Open(dsn string) (*DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// an in-memory database lives as long as its one connection
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) ensureSchema(ctx context.Context) error {
	d.schemaOnce.Do(func() {
		_, d.schemaErr = d.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS typespecs (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  body TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS functions (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  name TEXT NOT NULL,
  body TEXT NOT NULL
);
`)
	})
	return d.schemaErr
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putTypeSpec(ctx context.Context, x execer, spec typesystem.TypeSpec) error {
	data, err := typesystem.MarshalTypeSpec(spec)
	if err != nil {
		return err
	}
	_, err = x.ExecContext(ctx, `
INSERT INTO typespecs (id, kind, body) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET kind=excluded.kind, body=excluded.body`,
		spec.ID().String(), typesystem.KindOf(spec), string(data))
	return err
}

func putFunction(ctx context.Context, x execer, fn evaluator.Function) error {
	data, err := evaluator.MarshalFunction(fn)
	if err != nil {
		return err
	}
	kind, err := typesystem.ReadTag(data)
	if err != nil {
		return err
	}
	_, err = x.ExecContext(ctx, `
INSERT INTO functions (id, kind, name, body) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET kind=excluded.kind, name=excluded.name, body=excluded.body`,
		fn.ID().String(), kind, fn.Name(), string(data))
	return err
}

// PutTypeSpec inserts or replaces one typespec.
func (d *DB) PutTypeSpec(ctx context.Context, spec typesystem.TypeSpec) error {
	if err := d.ensureSchema(ctx); err != nil {
		return err
	}
	return putTypeSpec(ctx, d.db, spec)
}

// PutFunction inserts or replaces one function.
func (d *DB) PutFunction(ctx context.Context, fn evaluator.Function) error {
	if err := d.ensureSchema(ctx); err != nil {
		return err
	}
	return putFunction(ctx, d.db, fn)
}

func (d *DB) DeleteTypeSpec(ctx context.Context, id typesystem.ID) error {
	if err := d.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx, `DELETE FROM typespecs WHERE id = ?`, id.String())
	return err
}

func (d *DB) DeleteFunction(ctx context.Context, id typesystem.ID) error {
	if err := d.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx, `DELETE FROM functions WHERE id = ?`, id.String())
	return err
}

// SaveWorld replaces the stored world with w in one transaction.
func (d *DB) SaveWorld(ctx context.Context, w World) (err error) {
	if err := d.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, stmt := range []string{`DELETE FROM typespecs`, `DELETE FROM functions`} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for _, spec := range w.TypeSpecs {
		if err = putTypeSpec(ctx, tx, spec); err != nil {
			return fmt.Errorf("typespec %s: %w", spec.ReadableName(), err)
		}
	}
	for _, fn := range w.Functions {
		if err = putFunction(ctx, tx, fn); err != nil {
			return fmt.Errorf("function %s: %w", fn.Name(), err)
		}
	}
	return tx.Commit()
}

// LoadWorld reads every stored typespec and function, ordered by id.
func (d *DB) LoadWorld(ctx context.Context) (World, error) {
	if err := d.ensureSchema(ctx); err != nil {
		return World{}, err
	}
	var w World
	err := d.scan(ctx, `SELECT id, body FROM typespecs ORDER BY id`, func(id, body string) error {
		spec, err := typesystem.UnmarshalTypeSpec([]byte(body))
		if err != nil {
			return fmt.Errorf("typespec %s: %w", id, err)
		}
		w.TypeSpecs = append(w.TypeSpecs, spec)
		return nil
	})
	if err != nil {
		return World{}, err
	}
	err = d.scan(ctx, `SELECT id, body FROM functions ORDER BY id`, func(id, body string) error {
		fn, err := evaluator.UnmarshalFunction([]byte(body))
		if err != nil {
			return fmt.Errorf("function %s: %w", id, err)
		}
		w.Functions = append(w.Functions, fn)
		return nil
	})
	if err != nil {
		return World{}, err
	}
	return w, nil
}

func (d *DB) scan(ctx context.Context, query string, row func(id, body string) error) error {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return err
		}
		if err := row(id, body); err != nil {
			return err
		}
	}
	return rows.Err()
}
