// Package runtime implements the JEZ evaluator and its object model.
package runtime

import (
	"fmt"
	"jez-lang/internal/ast"
	"jez-lang/internal/token"
	"math"
	"strconv"
)

// Value is the interface for all runtime values. String returns the text
// form written by print.
type Value interface {
	TypeName() string
	String() string
}

// Callable is implemented by every value that can appear before "(".
type Callable interface {
	Value
	Arity() int
	Call(interp *Interpreter, args []Value) (Value, error)
}

// ---- Primitive values ----

// NilVal is the value of `none`.
type NilVal struct{}

func (NilVal) TypeName() string { return "nil" }
func (NilVal) String() string   { return "nil" }

// BoolVal is a boolean.
type BoolVal bool

func (v BoolVal) TypeName() string { return "boolean" }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }

// NumberVal is a double-precision number.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string   { return formatNumber(float64(v)) }

// StringVal is an immutable string.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// formatNumber drops a trailing ".0" and spells out non-finite values.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ---- Callables ----

// NativeFunction is a built-in implemented in Go.
type NativeFunction struct {
	Name  string
	arity int
	Fn    func(args []Value) (Value, error)
}

func (n *NativeFunction) TypeName() string { return "native" }
func (n *NativeFunction) String() string   { return "<native fn>" }
func (n *NativeFunction) Arity() int       { return n.arity }

func (n *NativeFunction) Call(_ *Interpreter, args []Value) (Value, error) {
	return n.Fn(args)
}

// Function is a user-defined function or method together with the frame it
// closed over.
type Function struct {
	Decl          *ast.FuncDecl
	Closure       *Environment
	IsInitializer bool
}

func (f *Function) TypeName() string { return "function" }
func (f *Function) String() string   { return fmt.Sprintf("<fn %s>", f.Decl.Name.Lexeme) }
func (f *Function) Arity() int       { return len(f.Decl.Params) }

func (f *Function) Call(interp *Interpreter, args []Value) (Value, error) {
	return interp.callFunction(f, args)
}

// Bind returns a copy of f whose closure has one extra frame binding
// "this" to instance. f itself is unchanged.
func (f *Function) Bind(interp *Interpreter, instance *Instance) *Function {
	env := interp.newFrame(f.Closure)
	env.Define("this", instance)
	return &Function{Decl: f.Decl, Closure: env, IsInitializer: f.IsInitializer}
}

// Class is a template: a name, an optional superclass and a method table.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

func (c *Class) TypeName() string { return "template" }
func (c *Class) String() string   { return c.Name }

// FindMethod looks name up in c and then along the superclass chain.
func (c *Class) FindMethod(name string) *Function {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Methods[name]; ok {
			return m
		}
	}
	return nil
}

// Arity is the initializer's arity, or zero without one.
func (c *Class) Arity() int {
	if init := c.FindMethod("initialize"); init != nil {
		return init.Arity()
	}
	return 0
}

// Call allocates an instance and runs the initializer, if any, on it.
// The result is always the instance.
func (c *Class) Call(interp *Interpreter, args []Value) (Value, error) {
	instance := &Instance{Class: c, fields: make(map[string]Value)}
	if init := c.FindMethod("initialize"); init != nil {
		if _, err := init.Bind(interp, instance).Call(interp, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is an object created by calling a Class.
type Instance struct {
	Class  *Class
	fields map[string]Value
}

func (i *Instance) TypeName() string { return i.Class.Name }
func (i *Instance) String() string   { return i.Class.Name + " instance" }

// Get returns a field, or else a method bound to i. Fields shadow methods.
func (i *Instance) Get(interp *Interpreter, name token.Token) (Value, error) {
	if val, ok := i.fields[name.Lexeme]; ok {
		return val, nil
	}
	if method := i.Class.FindMethod(name.Lexeme); method != nil {
		return method.Bind(interp, i), nil
	}
	return nil, runtimeErr(name, "E4002", "undefined property '%s'", name.Lexeme)
}

// Set creates or overwrites a field.
func (i *Instance) Set(name token.Token, value Value) {
	i.fields[name.Lexeme] = value
}

// ---- Truthiness ----

// IsTruthy reports whether v counts as true: only nil and false do not.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NilVal:
		return false
	case BoolVal:
		return bool(val)
	default:
		return true
	}
}

// Stringify returns the text form of v.
func Stringify(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.String()
}

// isEqual compares by value for primitives and by identity for objects.
// NaN is not equal to itself.
func isEqual(a, b Value) bool {
	return a == b
}
