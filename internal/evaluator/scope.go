package evaluator

import "fmt"

// Scope holds local bindings keyed by binding-site id: an Assignment, a
// ForLoop, an ArgumentDefinition or a match variant.
type Scope struct {
	store map[ID]Value
	outer *Scope
}

func NewScope() *Scope {
	return &Scope{store: make(map[ID]Value)}
}

func NewEnclosedScope(outer *Scope) *Scope {
	s := NewScope()
	s.outer = outer
	return s
}

func (s *Scope) Get(id ID) (Value, bool) {
	v, ok := s.store[id]
	if !ok && s.outer != nil {
		v, ok = s.outer.Get(id)
	}
	return v, ok
}

func (s *Scope) Set(id ID, v Value) Value {
	s.store[id] = v
	return v
}

// Update rebinds id in the innermost scope that holds it.
func (s *Scope) Update(id ID, v Value) bool {
	if _, ok := s.store[id]; ok {
		s.store[id] = v
		return true
	}
	if s.outer != nil {
		return s.outer.Update(id, v)
	}
	return false
}

// UnboundVariableError is raised (as a panic) when a variable reference has
// no binding. Trees built through the editor cannot reach this state.
type UnboundVariableError struct {
	ReferenceID  ID
	AssignmentID ID
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("variable reference %s: nothing bound for %s", e.ReferenceID, e.AssignmentID)
}
