package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/funvibe/nodecore/internal/analyzer"
	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/jsondoc"
	"github.com/funvibe/nodecore/internal/prettyprinter"
	"github.com/funvibe/nodecore/internal/schema"
	"github.com/funvibe/nodecore/internal/symbols"
	"github.com/funvibe/nodecore/internal/typesystem"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	return fs
}

func (a *app) newEvaluator(ctx context.Context, env *evaluator.Environment) *evaluator.Evaluator {
	e := evaluator.New(env, a.settings).WithLogger(a.logger)
	e.Context = ctx
	return e
}

func runCommand(a *app, args []string) error {
	fs := newFlags("run")
	worldPath := fs.String("world", "", "world file or database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("run: missing function name")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := a.openWorld(ctx, *worldPath)
	if err != nil {
		return err
	}
	defer w.Close()

	fn, err := w.function(fs.Arg(0))
	if err != nil {
		return err
	}
	callArgs, err := parseArgs(fn.TakesArgs(), fs.Args()[1:], w.env)
	if err != nil {
		return fmt.Errorf("%s: %w", fn.Name(), err)
	}

	result := a.newEvaluator(ctx, w.env).Call(fn.ID(), callArgs)
	if result.Kind() == evaluator.ERROR_VALUE {
		return errors.New(result.Inspect())
	}
	fmt.Println(prettyprinter.PrintValue(w.table, result))
	return nil
}

// parseArgs binds name=value pairs to the declared arguments. String
// arguments take the value as written, anything else is read as JSON.
func parseArgs(defs []ast.ArgumentDefinition, pairs []string, env *evaluator.Environment) (map[typesystem.ID]evaluator.Value, error) {
	byName := make(map[string]ast.ArgumentDefinition, len(defs))
	for _, def := range defs {
		byName[def.ShortName] = def
	}
	out := make(map[typesystem.ID]evaluator.Value, len(defs))
	for _, pair := range pairs {
		name, text, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not name=value", pair)
		}
		def, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("no argument named %q", name)
		}
		if def.ArgType.TypespecID == config.StringTypespecID {
			out[def.ID] = evaluator.NewString(text)
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		v, err := evaluator.DecodeJSON(raw, def.ArgType, env)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		out[def.ID] = v
	}
	for _, def := range defs {
		if _, ok := out[def.ID]; !ok {
			return nil, fmt.Errorf("missing argument %s", def.ShortName)
		}
	}
	return out, nil
}

func chatCommand(a *app, args []string) error {
	fs := newFlags("chat")
	worldPath := fs.String("world", "", "world file or database")
	sender := fs.String("sender", "cli", "name the message is sent as")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if text == "" {
		return errors.New("chat: missing message")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	w, err := a.openWorld(ctx, *worldPath)
	if err != nil {
		return err
	}
	defer w.Close()

	e := a.newEvaluator(ctx, w.env)
	fired := 0
	for _, trigger := range w.table.ListChatTriggers() {
		reply, ok := trigger.TryTrigger(e, *sender, text)
		if !ok {
			continue
		}
		fired++
		fmt.Printf("%s: %s\n", trigger.Name(), prettyprinter.PrintValue(w.table, reply))
	}
	if fired == 0 {
		a.logger.Info("no chat trigger matched", "text", text)
	}
	return nil
}

func showCommand(a *app, args []string) error {
	fs := newFlags("show")
	worldPath := fs.String("world", "", "world file or database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	w, err := a.openWorld(context.Background(), *worldPath)
	if err != nil {
		return err
	}
	defer w.Close()

	var fns []evaluator.Function
	if fs.NArg() == 0 {
		for _, fn := range w.env.Functions() {
			if _, builtin := fn.(*evaluator.Builtin); !builtin {
				fns = append(fns, fn)
			}
		}
	}
	for _, name := range fs.Args() {
		fn, err := w.function(name)
		if err != nil {
			return err
		}
		fns = append(fns, fn)
	}
	for i, fn := range fns {
		if i > 0 {
			fmt.Println()
		}
		fmt.Print(prettyprinter.PrintFunction(w.table, fn))
	}
	return nil
}

func validateCommand(a *app, args []string) error {
	fs := newFlags("validate")
	worldPath := fs.String("world", "", "world file or database")
	fix := fs.Bool("fix", false, "append a value of the required type to each failing block and save")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	w, err := a.openWorld(ctx, *worldPath)
	if err != nil {
		return err
	}
	defer w.Close()

	v := analyzer.NewValidator(w.env, w.table, a.logger)
	var problems []analyzer.Problem
	if *fix {
		problems = v.ValidateAndFix()
	} else {
		problems = v.FindProblems()
	}
	for _, p := range problems {
		name := p.Location.FunctionID.String()
		if fn, ok := w.table.FindFunction(p.Location.FunctionID); ok {
			name = fn.Name()
		}
		fmt.Printf("%s (%s): returns %s, needs %s\n", name, p.Location.Part,
			w.table.NameForType(p.Got), w.table.NameForType(p.Required))
	}

	switch {
	case len(problems) == 0:
		fmt.Println("ok")
		return nil
	case *fix:
		if err := w.save(ctx); err != nil {
			return err
		}
		fmt.Printf("fixed %d blocks\n", len(problems))
		return nil
	}
	return fmt.Errorf("%d blocks return the wrong type", len(problems))
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func classifyCommand(a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: nodecore classify <example.json|->")
	}
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	doc, err := jsondoc.Parse(data)
	if err != nil {
		return err
	}
	return writeClassification(os.Stdout, doc)
}

func writeClassification(out io.Writer, doc *jsondoc.Document) error {
	selectable := make(map[*jsondoc.Document]bool)
	for _, d := range doc.SelectableFields() {
		selectable[d] = true
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKIND\tVALUE\t")
	for d := range doc.Walk() {
		mark := ""
		if selectable[d] {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Nesting, d.Kind, scalarText(d), mark)
	}
	return tw.Flush()
}

func scalarText(d *jsondoc.Document) string {
	switch d.Kind {
	case jsondoc.Null:
		return "null"
	case jsondoc.Bool:
		return strconv.FormatBool(d.Bool)
	case jsondoc.String:
		if d.FromNumber {
			return d.String
		}
		return strconv.Quote(d.String)
	case jsondoc.Number:
		return strconv.FormatInt(d.Number, 10)
	case jsondoc.List:
		return fmt.Sprintf("[%d]", len(d.Items))
	case jsondoc.Map:
		return fmt.Sprintf("{%d}", len(d.Keys))
	}
	return ""
}

func synthCommand(a *app, args []string) error {
	fs := newFlags("synth")
	worldPath := fs.String("world", "", "world file or database holding the client")
	clientName := fs.String("client", "", "JSON HTTP client to update")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("synth: missing example response")
	}
	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	var paths []jsondoc.Nesting
	for _, s := range fs.Args()[1:] {
		n, err := jsondoc.ParseNesting(s)
		if err != nil {
			return err
		}
		paths = append(paths, n)
	}

	if *clientName == "" {
		table := symbols.NewTable(evaluator.NewEnvironment(), a.settings.ArgCacheSize)
		b := schema.NewClientBuilder(table, typesystem.NewID(), a.logger)
		if err := selectAll(b, data, paths); err != nil {
			return err
		}
		spec, err := b.Spec()
		if err != nil {
			return err
		}
		res := schema.Lower(spec, schema.RootName, table)
		res.Register(table.Env())
		return writeResult(os.Stdout, table, res)
	}

	ctx := context.Background()
	w, err := a.openWorld(ctx, *worldPath)
	if err != nil {
		return err
	}
	defer w.Close()
	fn, err := w.function(*clientName)
	if err != nil {
		return err
	}
	b := schema.NewClientBuilder(w.table, fn.ID(), a.logger)
	if err := selectAll(b, data, paths); err != nil {
		return err
	}
	res, err := b.Rebuild()
	if err != nil {
		return err
	}
	if err := writeResult(os.Stdout, w.table, res); err != nil {
		return err
	}
	return w.save(ctx)
}

func selectAll(b *schema.ClientBuilder, example []byte, paths []jsondoc.Nesting) error {
	if err := b.SetExample(example); err != nil {
		return err
	}
	for _, p := range paths {
		if err := b.Select(p); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(out io.Writer, table *symbols.Table, res schema.Result) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "type: %s\n", table.NameForType(res.Type))
	for _, s := range res.NewStructs {
		fmt.Fprintf(&buf, "\nstruct %s\n", s.Name)
		for _, f := range s.Fields {
			fmt.Fprintf(&buf, "  %s: %s\n", f.Name, table.NameForType(f.FieldType))
		}
	}
	_, err := out.Write(buf.Bytes())
	return err
}
