package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/store"
	"github.com/funvibe/nodecore/internal/symbols"
)

// world is an environment loaded from a file or database, together with
// the way back to where it came from.
type world struct {
	path  string
	env   *evaluator.Environment
	table *symbols.Table
	db    *store.DB
}

func isDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func (a *app) openWorld(ctx context.Context, path string) (*world, error) {
	if path == "" {
		path = a.settings.DatabasePath
	}
	if path == "" {
		return nil, errors.New("no world given: pass -world or set database_path")
	}
	w := &world{path: path, env: evaluator.NewEnvironment()}
	var loaded store.World
	if isDatabase(path) {
		db, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		if loaded, err = db.LoadWorld(ctx); err != nil {
			db.Close()
			return nil, err
		}
		w.db = db
	} else {
		var err error
		if loaded, err = store.LoadWorldFile(path); err != nil {
			return nil, err
		}
	}
	loaded.Install(w.env)
	w.table = symbols.NewTable(w.env, a.settings.ArgCacheSize)
	a.logger.Debug("world loaded", "path", path,
		"functions", len(loaded.Functions), "typespecs", len(loaded.TypeSpecs))
	return w, nil
}

func (w *world) save(ctx context.Context) error {
	snap := store.Snapshot(w.env)
	if w.db != nil {
		return w.db.SaveWorld(ctx, snap)
	}
	return store.SaveWorldFile(w.path, snap)
}

func (w *world) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

// function finds a user function by name.
func (w *world) function(name string) (evaluator.Function, error) {
	var found []evaluator.Function
	for _, fn := range w.env.Functions() {
		if _, builtin := fn.(*evaluator.Builtin); !builtin && fn.Name() == name {
			found = append(found, fn)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no function named %q in %s", name, w.path)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("%d functions are named %q in %s", len(found), name, w.path)
}

func importCommand(a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: nodecore import <world.json> <world.db>")
	}
	w, err := store.LoadWorldFile(args[0])
	if err != nil {
		return err
	}
	db, err := store.Open(args[1])
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SaveWorld(context.Background(), w); err != nil {
		return err
	}
	fmt.Printf("imported %d functions and %d typespecs into %s\n", len(w.Functions), len(w.TypeSpecs), args[1])
	return nil
}

func exportCommand(a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: nodecore export <world.db> <world.json>")
	}
	db, err := store.Open(args[0])
	if err != nil {
		return err
	}
	defer db.Close()
	w, err := db.LoadWorld(context.Background())
	if err != nil {
		return err
	}
	if err := store.SaveWorldFile(args[1], w); err != nil {
		return err
	}
	info, err := os.Stat(args[1])
	if err != nil {
		return err
	}
	fmt.Printf("exported %d functions and %d typespecs to %s (%s)\n",
		len(w.Functions), len(w.TypeSpecs), args[1], humanize.Bytes(uint64(info.Size())))
	return nil
}
