package schema

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/jsondoc"
	"github.com/funvibe/nodecore/internal/symbols"
)

var ErrNoExample = errors.New("no example response loaded")

// ClientBuilder derives the response type of one JSON HTTP client from an
// example response and the paths picked from it.
type ClientBuilder struct {
	ClientID ID
	Example  *jsondoc.Document
	Selected []SelectedField

	table  *symbols.Table
	logger *slog.Logger
}

func NewClientBuilder(table *symbols.Table, clientID ID, logger *slog.Logger) *ClientBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientBuilder{ClientID: clientID, table: table, logger: logger}
}

// SetExample loads a new example response. The previous selection refers to
// the old document and is dropped.
func (b *ClientBuilder) SetExample(data []byte) error {
	doc, err := jsondoc.Parse(data)
	if err != nil {
		return err
	}
	b.Example = doc
	b.Selected = nil
	return nil
}

// Field returns the selected field at nesting.
func (b *ClientBuilder) Field(nesting jsondoc.Nesting) (SelectedField, bool) {
	for _, f := range b.Selected {
		if f.Nesting.Equal(nesting) {
			return f, true
		}
	}
	return SelectedField{}, false
}

// Select adds the scalar at nesting to the selection, typed by its example
// value and named after its map keys.
func (b *ClientBuilder) Select(nesting jsondoc.Nesting) error {
	if b.Example == nil {
		return ErrNoExample
	}
	if _, ok := b.Field(nesting); ok {
		return nil
	}
	node, ok := b.Example.Find(nesting)
	if !ok {
		return fmt.Errorf("no value at %s", nesting)
	}
	if !node.Kind.IsScalar() {
		return fmt.Errorf("%s at %s can't be selected", node.Kind, nesting)
	}
	b.Selected = append(b.Selected, SelectedField{
		Name:       jsondoc.FieldName(nesting),
		Nesting:    nesting,
		TypespecID: node.ScalarTypespecID(),
	})
	return nil
}

func (b *ClientBuilder) Deselect(nesting jsondoc.Nesting) {
	for i, f := range b.Selected {
		if f.Nesting.Equal(nesting) {
			b.Selected = append(b.Selected[:i:i], b.Selected[i+1:]...)
			return
		}
	}
}

// Spec is the shape of the current selection, or of the whole example when
// nothing is selected.
func (b *ClientBuilder) Spec() (*ReturnTypeSpec, error) {
	if len(b.Selected) > 0 {
		return BuildSpec(b.Selected), nil
	}
	if b.Example == nil {
		return nil, ErrNoExample
	}
	return FromDocument(b.Example)
}

// Rebuild re-derives the client's response type. The structs synthesised
// for the client last time are deleted first so they don't satisfy the
// deduplication of their own replacement.
func (b *ClientBuilder) Rebuild() (Result, error) {
	fn, ok := b.table.FindFunction(b.ClientID)
	if !ok {
		return Result{}, fmt.Errorf("function %s not found", b.ClientID)
	}
	client, ok := fn.(*evaluator.JSONHTTPClient)
	if !ok {
		return Result{}, fmt.Errorf("function %q is not a JSON HTTP client", fn.Name())
	}
	spec, err := b.Spec()
	if err != nil {
		return Result{}, err
	}

	env := b.table.Env()
	for _, id := range client.IntermediateStructs {
		env.DeleteTypeSpec(id)
	}
	res := Lower(spec, RootName, b.table)
	ApplyToClient(env, client, res)

	b.logger.Info("rebuilt client response type",
		"client", client.Name(),
		"type", b.table.NameForType(res.Type),
		"new_structs", len(res.NewStructs))
	return res, nil
}

// ApplyToClient registers res and stores a copy of client whose JSON body
// decodes into res.Type. A client without transform code returns the
// decoded value as is.
func ApplyToClient(env *evaluator.Environment, client *evaluator.JSONHTTPClient, res Result) *evaluator.JSONHTTPClient {
	res.Register(env)
	updated := *client
	updated.IntermediateArg.ArgType = res.Type
	updated.IntermediateStructs = res.StructIDs()
	if client.Transform == nil || len(client.Transform.Exprs) == 0 {
		updated.ReturnType = res.Type
	}
	env.AddFunction(&updated)
	return &updated
}
