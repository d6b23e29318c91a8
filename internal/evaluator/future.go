package evaluator

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is an asynchronous computation started by a Function (typically
// I/O). It runs at most once, on its own goroutine, and must not touch the
// evaluator: it produces a plain value from its inputs only.
type Task struct {
	run    func(ctx context.Context) Value
	once   sync.Once
	done   chan struct{}
	result Value
}

func NewTask(run func(ctx context.Context) Value) *Task {
	return &Task{run: run, done: make(chan struct{})}
}

func (t *Task) start(ctx context.Context) {
	t.once.Do(func() {
		go func() {
			defer close(t.done)
			t.result = t.run(ctx)
		}()
	})
}

// Poll reports the result if the task has finished.
func (t *Task) Poll() (Value, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return nil, false
	}
}

// Await starts the task if needed and blocks until it finishes or ctx is
// done.
func (t *Task) Await(ctx context.Context) Value {
	t.start(ctx)
	select {
	case <-t.done:
		return t.result
	case <-ctx.Done():
		return newError(Cancelled, "%v", ctx.Err())
	}
}

// Future is a value that is not available yet: Pending until its task
// finishes, then Done. Continuations registered with Then run on the
// driver's goroutine once the task result is in, so they may evaluate code.
// They run once per Future: every later resolution of the same Future, for
// example through a variable bound to it, reuses the first result.
type Future struct {
	task *Task
	then []func(Value) Value

	once     sync.Once
	finished Value
}

func NewFuture(run func(ctx context.Context) Value) *Future {
	return &Future{task: NewTask(run)}
}

func (*Future) Kind() ValueKind { return FUTURE_VALUE }
func (f *Future) Inspect() string {
	if f.finished != nil {
		return "<future: done>"
	}
	if _, ok := f.task.Poll(); ok {
		return "<future: done>"
	}
	return "<future: pending>"
}

// Then returns a future whose result is fn applied to f's result.
func (f *Future) Then(fn func(Value) Value) *Future {
	then := make([]func(Value) Value, len(f.then), len(f.then)+1)
	copy(then, f.then)
	return &Future{task: f.task, then: append(then, fn)}
}

func (f *Future) finish(v Value) Value {
	f.once.Do(func() {
		for _, fn := range f.then {
			if isError(v) {
				// errors skip the remaining continuations
				break
			}
			v = fn(v)
		}
		f.finished = v
	})
	return f.finished
}

// Driver is the single loop that turns pending values into plain ones.
// Pending tasks found in one value tree are awaited concurrently; the
// continuations and the substitution back into the tree happen on the
// calling goroutine.
type Driver struct {
	Logger *slog.Logger
}

func NewDriver(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{Logger: logger}
}

// Resolve returns v with every nested future replaced by its result.
// Results that are themselves futures are resolved in later rounds.
func (d *Driver) Resolve(ctx context.Context, v Value) Value {
	for round := 0; ; round++ {
		pending := collectFutures(v, nil)
		if len(pending) == 0 {
			return v
		}
		d.Logger.Debug("awaiting futures", "count", len(pending), "round", round)

		tasks := map[*Task]Value{}
		var order []*Task
		for _, f := range pending {
			if _, seen := tasks[f.task]; !seen {
				tasks[f.task] = nil
				order = append(order, f.task)
			}
		}
		results := make([]Value, len(order))
		g, gctx := errgroup.WithContext(ctx)
		for i, t := range order {
			g.Go(func() error {
				results[i] = t.Await(gctx)
				return nil
			})
		}
		_ = g.Wait()
		for i, t := range order {
			tasks[t] = results[i]
		}
		v = substitute(v, tasks)
	}
}

func collectFutures(v Value, acc []*Future) []*Future {
	switch v := v.(type) {
	case *Future:
		return append(acc, v)
	case *List:
		for _, item := range v.Items {
			acc = collectFutures(item, acc)
		}
	case *Struct:
		for _, field := range v.Fields {
			acc = collectFutures(field, acc)
		}
	case *Enum:
		acc = collectFutures(v.Payload, acc)
	case *EarlyReturn:
		acc = collectFutures(v.Value, acc)
	}
	return acc
}

// substitute rebuilds containers that hold futures; untouched subtrees are
// shared.
func substitute(v Value, results map[*Task]Value) Value {
	switch v := v.(type) {
	case *Future:
		return v.finish(results[v.task])
	case *List:
		if !containsFuture(v) {
			return v
		}
		items := make([]Value, len(v.Items))
		for i, item := range v.Items {
			items[i] = substitute(item, results)
		}
		return &List{ElemType: v.ElemType, Items: items}
	case *Struct:
		if !containsFuture(v) {
			return v
		}
		fields := make(map[ID]Value, len(v.Fields))
		for id, field := range v.Fields {
			fields[id] = substitute(field, results)
		}
		return &Struct{StructID: v.StructID, Fields: fields}
	case *Enum:
		if !containsFuture(v) {
			return v
		}
		return &Enum{VariantID: v.VariantID, Payload: substitute(v.Payload, results)}
	case *EarlyReturn:
		return &EarlyReturn{Value: substitute(v.Value, results)}
	}
	return v
}

func containsFuture(v Value) bool {
	return len(collectFutures(v, nil)) > 0
}
