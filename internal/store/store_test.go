package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// sampleEnv registers one of each persisted entity.
func sampleEnv() *evaluator.Environment {
	env := evaluator.NewEnvironment()

	point := typesystem.NewStruct("Point", "a point",
		typesystem.NewStructField("x", "", typesystem.NumberType),
		typesystem.NewStructField("y", "", typesystem.NumberType))
	env.AddTypeSpec(point)

	fn := evaluator.NewCodeFunction("origin", typesystem.FromSpec(point))
	fn.Block = ast.NewBlock(
		ast.NewStructLiteral(point.ID(),
			ast.NewStructLiteralField(point.Fields[0].ID, ast.NewNumberLiteral(0)),
			ast.NewStructLiteralField(point.Fields[1].ID, ast.NewNumberLiteral(0))))
	env.AddFunction(fn)

	client := evaluator.NewJSONHTTPClient("todos")
	client.URL = ast.NewBlock(ast.NewStringLiteral("https://example.com/todos"))
	env.AddFunction(client)

	trigger := evaluator.NewChatTrigger("hello", "hi")
	trigger.Block = ast.NewBlock(ast.NewStringLiteral("hello!"))
	env.AddFunction(trigger)
	return env
}

func encoded(t *testing.T, w World) []byte {
	t.Helper()
	data, err := EncodeWorld(w)
	if err != nil {
		t.Fatalf("EncodeWorld: %v", err)
	}
	return data
}

func TestSnapshotSkipsBuiltins(t *testing.T) {
	w := Snapshot(sampleEnv())
	if len(w.TypeSpecs) != 1 {
		t.Errorf("got %d typespecs, want 1", len(w.TypeSpecs))
	}
	if len(w.Functions) != 3 {
		t.Errorf("got %d functions, want 3", len(w.Functions))
	}
	if empty := Snapshot(evaluator.NewEnvironment()); len(empty.TypeSpecs)+len(empty.Functions) != 0 {
		t.Errorf("fresh environment snapshot is not empty: %+v", empty)
	}
}

func TestWorldFileRoundTrip(t *testing.T) {
	want := Snapshot(sampleEnv())
	path := filepath.Join(t.TempDir(), "worlds", "sample.json")

	if err := SaveWorldFile(path, want); err != nil {
		t.Fatalf("SaveWorldFile: %v", err)
	}
	got, err := LoadWorldFile(path)
	if err != nil {
		t.Fatalf("LoadWorldFile: %v", err)
	}

	env := evaluator.NewEnvironment()
	got.Install(env)
	if a, b := encoded(t, want), encoded(t, Snapshot(env)); !bytes.Equal(a, b) {
		t.Errorf("world changed across a file round trip\n got %s\nwant %s", b, a)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("save left %d files behind, want 1", len(entries))
	}
}

func TestDecodeWorldErrors(t *testing.T) {
	tests := map[string]string{
		"not json":         `[`,
		"unknown typespec": `{"typespecs": [{"type": "Mystery"}], "functions": []}`,
		"unknown function": `{"typespecs": [], "functions": [{"type": "Mystery"}]}`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeWorld([]byte(src)); err == nil {
				t.Error("DecodeWorld succeeded")
			}
		})
	}
}

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDBRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	want := Snapshot(sampleEnv())

	if err := db.SaveWorld(ctx, want); err != nil {
		t.Fatalf("SaveWorld: %v", err)
	}
	got, err := db.LoadWorld(ctx)
	if err != nil {
		t.Fatalf("LoadWorld: %v", err)
	}
	env := evaluator.NewEnvironment()
	got.Install(env)
	if a, b := encoded(t, want), encoded(t, Snapshot(env)); !bytes.Equal(a, b) {
		t.Errorf("world changed across a database round trip\n got %s\nwant %s", b, a)
	}

	// saving again replaces rather than accumulates
	if err := db.SaveWorld(ctx, World{TypeSpecs: want.TypeSpecs}); err != nil {
		t.Fatal(err)
	}
	got, err = db.LoadWorld(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Functions) != 0 || len(got.TypeSpecs) != 1 {
		t.Errorf("after replace: %d functions, %d typespecs", len(got.Functions), len(got.TypeSpecs))
	}
}

func TestDBPutAndDelete(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	fn := evaluator.NewCodeFunction("answer", typesystem.NumberType)
	fn.Block = ast.NewBlock(ast.NewNumberLiteral(42))
	if err := db.PutFunction(ctx, fn); err != nil {
		t.Fatalf("PutFunction: %v", err)
	}
	fn.FuncName = "renamed"
	if err := db.PutFunction(ctx, fn); err != nil {
		t.Fatalf("PutFunction again: %v", err)
	}
	w, err := db.LoadWorld(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Functions) != 1 || w.Functions[0].Name() != "renamed" {
		t.Fatalf("LoadWorld functions = %v", w.Functions)
	}

	if err := db.DeleteFunction(ctx, fn.ID()); err != nil {
		t.Fatal(err)
	}
	if w, _ := db.LoadWorld(ctx); len(w.Functions) != 0 {
		t.Errorf("function still stored after delete")
	}

	spec := typesystem.NewStruct("Empty", "")
	if err := db.PutTypeSpec(ctx, spec); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteTypeSpec(ctx, spec.ID()); err != nil {
		t.Fatal(err)
	}
	if w, _ := db.LoadWorld(ctx); len(w.TypeSpecs) != 0 {
		t.Errorf("typespec still stored after delete")
	}
}

func TestDBRejectsBuiltin(t *testing.T) {
	db := openDB(t)
	fn := evaluator.Builtins()[0]
	if err := db.PutFunction(context.Background(), fn); err == nil {
		t.Errorf("stored builtin %s", fn.Name())
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.PutTypeSpec(context.Background(), typesystem.NewStruct("S", "")); err != nil {
		t.Fatal(err)
	}
	w, err := db.LoadWorld(context.Background())
	if err != nil || len(w.TypeSpecs) != 1 {
		t.Errorf("in-memory database lost its typespec: %v %v", w.TypeSpecs, err)
	}
}
