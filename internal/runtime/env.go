package runtime

import (
	"fmt"
	"jez-lang/internal/token"
)

// Environment is one lexical scope frame. Frames form a chain through
// enclosing; the global frame has none. A frame lives as long as any
// closure or nested frame still refers to it.
type Environment struct {
	values    map[string]Value
	enclosing *Environment
}

// NewEnvironment creates a frame nested in enclosing, which may be nil.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values:    make(map[string]Value),
		enclosing: enclosing,
	}
}

// Enclosing returns the parent frame, or nil for the global frame.
func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name in this frame only, overwriting any previous binding.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks name up in this frame and then outward.
func (e *Environment) Get(name token.Token) (Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if val, ok := env.values[name.Lexeme]; ok {
			return val, nil
		}
	}
	return nil, runtimeErr(name, "E4001", "undefined variable '%s'", name.Lexeme)
}

// Assign replaces an existing binding found in this frame or outward. It
// never creates a binding.
func (e *Environment) Assign(name token.Token, value Value) error {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.values[name.Lexeme]; ok {
			env.values[name.Lexeme] = value
			return nil
		}
	}
	return runtimeErr(name, "E4001", "undefined variable '%s'", name.Lexeme)
}

// Ancestor walks exactly distance enclosing links. The distance comes from
// the resolver; a chain that is too short is an interpreter bug.
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		if env.enclosing == nil {
			panic(fmt.Sprintf("environment: no frame at distance %d", distance))
		}
		env = env.enclosing
	}
	return env
}

// GetAt reads name from the frame distance links out.
func (e *Environment) GetAt(distance int, name string) Value {
	val, ok := e.Ancestor(distance).values[name]
	if !ok {
		panic(fmt.Sprintf("environment: '%s' not bound at distance %d", name, distance))
	}
	return val
}

// AssignAt writes name in the frame distance links out.
func (e *Environment) AssignAt(distance int, name string, value Value) {
	env := e.Ancestor(distance)
	if _, ok := env.values[name]; !ok {
		panic(fmt.Sprintf("environment: '%s' not bound at distance %d", name, distance))
	}
	env.values[name] = value
}
