package evaluator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/funvibe/nodecore/internal/typesystem"
)

func TestDriverResolvesNestedFutures(t *testing.T) {
	var runs atomic.Int32
	f := NewFuture(func(context.Context) Value {
		runs.Add(1)
		return NewNumber(2)
	})
	tenfold := f.Then(func(v Value) Value { return NewNumber(v.(*Number).Value * 10) })
	inner := NewFuture(func(context.Context) Value {
		return NewFuture(func(context.Context) Value { return NewString("deep") })
	})

	v := NewList(typesystem.AnyType, f, tenfold, NewNumber(1), Some(inner))
	got := NewDriver(nil).Resolve(context.Background(), v)

	want := NewList(typesystem.AnyType, NewNumber(2), NewNumber(20), NewNumber(1), Some(NewString("deep")))
	if !Equal(got, want) {
		t.Errorf("Resolve() = %s, want %s", got.Inspect(), want.Inspect())
	}
	if runs.Load() != 1 {
		t.Errorf("shared task ran %d times, want 1", runs.Load())
	}
	if containsFuture(got) {
		t.Error("result still holds futures")
	}
}

func TestContinuationsSkipErrors(t *testing.T) {
	called := false
	f := NewFuture(func(context.Context) Value { return newError(HTTPFailure, "down") }).
		Then(func(v Value) Value {
			called = true
			return v
		})
	got := NewDriver(nil).Resolve(context.Background(), f)
	if _, ok := got.(*Error); !ok || called {
		t.Errorf("Resolve() = %s, continuation called = %v", got.Inspect(), called)
	}
}

func TestResolveCancelled(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	f := NewFuture(func(context.Context) Value {
		<-block
		return NullValue
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := NewDriver(nil).Resolve(ctx, f)
	if errv, ok := got.(*Error); !ok || errv.ErrKind != Cancelled {
		t.Errorf("Resolve() = %s, want a Cancelled error", got.Inspect())
	}
}

func TestPlainValuesPassThrough(t *testing.T) {
	v := NewList(typesystem.StringType, NewString("a"))
	if got := NewDriver(nil).Resolve(context.Background(), v); got != Value(v) {
		t.Error("a value without futures should be returned as is")
	}
}

func TestContinuationsRunOnce(t *testing.T) {
	var calls atomic.Int32
	f := NewFuture(func(context.Context) Value { return NewNumber(1) }).
		Then(func(v Value) Value {
			calls.Add(1)
			return NewNumber(v.(*Number).Value + 1)
		})

	d := NewDriver(nil)
	for range 3 {
		assertValue(t, d.Resolve(context.Background(), f), NewNumber(2))
	}
	// one resolution of a list holding the same future twice
	assertValue(t, d.Resolve(context.Background(), NewList(typesystem.NumberType, f, f)),
		NewList(typesystem.NumberType, NewNumber(2), NewNumber(2)))
	if n := calls.Load(); n != 1 {
		t.Errorf("continuation ran %d times, want 1", n)
	}
}
