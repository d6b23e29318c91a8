// Package store persists worlds: the functions and typespecs a user has
// registered on top of the builtins. A world is kept either in a JSON file
// or in a SQLite database.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// World is the user-defined part of an environment.
type World struct {
	TypeSpecs []typesystem.TypeSpec
	Functions []evaluator.Function
}

// Snapshot collects everything in env that isn't a builtin.
func Snapshot(env *evaluator.Environment) World {
	builtin := make(map[typesystem.ID]bool)
	for _, spec := range typesystem.Builtins() {
		builtin[spec.ID()] = true
	}
	var w World
	for _, spec := range env.TypeSpecs() {
		if !builtin[spec.ID()] {
			w.TypeSpecs = append(w.TypeSpecs, spec)
		}
	}
	for _, fn := range env.Functions() {
		if _, ok := fn.(*evaluator.Builtin); !ok {
			w.Functions = append(w.Functions, fn)
		}
	}
	return w
}

// Install registers the world into env, typespecs first.
func (w World) Install(env *evaluator.Environment) {
	for _, spec := range w.TypeSpecs {
		env.AddTypeSpec(spec)
	}
	for _, fn := range w.Functions {
		env.AddFunction(fn)
	}
}

type worldFile struct {
	TypeSpecs []json.RawMessage `json:"typespecs"`
	Functions []json.RawMessage `json:"functions"`
}

func EncodeWorld(w World) ([]byte, error) {
	f := worldFile{TypeSpecs: []json.RawMessage{}, Functions: []json.RawMessage{}}
	for _, spec := range w.TypeSpecs {
		data, err := typesystem.MarshalTypeSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("typespec %s: %w", spec.ReadableName(), err)
		}
		f.TypeSpecs = append(f.TypeSpecs, data)
	}
	for _, fn := range w.Functions {
		data, err := evaluator.MarshalFunction(fn)
		if err != nil {
			return nil, err
		}
		f.Functions = append(f.Functions, data)
	}
	return json.MarshalIndent(f, "", "  ")
}

func DecodeWorld(data []byte) (World, error) {
	var f worldFile
	if err := json.Unmarshal(data, &f); err != nil {
		return World{}, fmt.Errorf("decoding world: %w", err)
	}
	var w World
	for i, raw := range f.TypeSpecs {
		spec, err := typesystem.UnmarshalTypeSpec(raw)
		if err != nil {
			return World{}, fmt.Errorf("typespec %d: %w", i, err)
		}
		w.TypeSpecs = append(w.TypeSpecs, spec)
	}
	for i, raw := range f.Functions {
		fn, err := evaluator.UnmarshalFunction(raw)
		if err != nil {
			return World{}, fmt.Errorf("function %d: %w", i, err)
		}
		w.Functions = append(w.Functions, fn)
	}
	return w, nil
}

func LoadWorldFile(path string) (World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return World{}, err
	}
	w, err := DecodeWorld(data)
	if err != nil {
		return World{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// SaveWorldFile writes w next to path and renames it into place, so a
// failed save leaves the previous file intact.
func SaveWorldFile(path string, w World) error {
	data, err := EncodeWorld(w)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
