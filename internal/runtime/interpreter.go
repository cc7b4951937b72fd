package runtime

import (
	"fmt"
	"io"
	"jez-lang/internal/ast"
	"jez-lang/internal/metrics"
	"jez-lang/internal/resolver"
	"jez-lang/internal/token"
	"time"

	"go.uber.org/zap"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone   ExecSignal = iota
	SigReturn            // return from function
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks a resolved AST and executes it.
type Interpreter struct {
	globals *Environment
	env     *Environment
	locals  resolver.Table
	output  io.Writer
	metrics *metrics.Metrics
	log     *zap.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMetrics makes the interpreter count statements, calls and frames.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Interpreter) { i.metrics = m }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(log *zap.Logger) Option {
	return func(i *Interpreter) { i.log = log }
}

// NewInterpreter creates an interpreter printing to output, with the
// natives installed in its global frame.
func NewInterpreter(output io.Writer, opts ...Option) *Interpreter {
	globals := NewEnvironment(nil)
	RegisterNatives(globals)
	i := &Interpreter{
		globals: globals,
		env:     globals,
		locals:  resolver.Table{},
		output:  output,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret executes program using the distances in table. table must come
// from a resolver run over the same program that reported no errors. The
// first runtime error stops execution and is returned.
func (i *Interpreter) Interpret(program *ast.Program, table resolver.Table) error {
	i.locals.Merge(table)
	i.env = i.globals

	start := time.Now()
	defer func() {
		if i.metrics != nil {
			i.metrics.RecordRun(time.Since(start))
		}
	}()

	for _, stmt := range program.Stmts {
		if _, err := i.execute(stmt); err != nil {
			if i.metrics != nil {
				i.metrics.RecordRuntimeError()
			}
			i.log.Debug("runtime error", zap.Error(err))
			return err
		}
	}
	return nil
}

func (i *Interpreter) newFrame(enclosing *Environment) *Environment {
	if i.metrics != nil {
		i.metrics.RecordFrame()
	}
	return NewEnvironment(enclosing)
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execute(stmt ast.Stmt) (ExecResult, error) {
	if i.metrics != nil {
		i.metrics.RecordStatement()
	}

	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evaluate(s.Expr)
		return resultNone, err

	case *ast.PrintStmt:
		val, err := i.evaluate(s.Expr)
		if err != nil {
			return resultNone, err
		}
		fmt.Fprintln(i.output, Stringify(val))
		return resultNone, nil

	case *ast.VarDeclStmt:
		var val Value = NilVal{}
		if s.Init != nil {
			v, err := i.evaluate(s.Init)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		i.env.Define(s.Name.Lexeme, val)
		return resultNone, nil

	case *ast.BlockStmt:
		return i.executeBlock(s.Stmts, i.newFrame(i.env))

	case *ast.IfStmt:
		cond, err := i.evaluate(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if IsTruthy(cond) {
			return i.execute(s.Then)
		}
		if s.Else != nil {
			return i.execute(s.Else)
		}
		return resultNone, nil

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.FuncDecl:
		i.env.Define(s.Name.Lexeme, &Function{Decl: s, Closure: i.env})
		return resultNone, nil

	case *ast.ReturnStmt:
		var val Value = NilVal{}
		if s.Value != nil {
			v, err := i.evaluate(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.ClassDecl:
		return i.execClassDecl(s)

	default:
		panic(fmt.Sprintf("interpreter: unhandled statement %T", stmt))
	}
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evaluate(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			return resultNone, nil
		}

		result, err := i.execute(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigReturn {
			return result, nil // propagate return
		}
	}
}

// executeBlock runs stmts in env and restores the previous frame on exit,
// including on error or return.
func (i *Interpreter) executeBlock(stmts []ast.Stmt, env *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = env
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		result, err := i.execute(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execClassDecl(s *ast.ClassDecl) (ExecResult, error) {
	i.env.Define(s.Name.Lexeme, NilVal{})

	var superclass *Class
	if s.Superclass != nil {
		val, err := i.evaluate(s.Superclass)
		if err != nil {
			return resultNone, err
		}
		cls, ok := val.(*Class)
		if !ok {
			return resultNone, runtimeErr(s.Superclass.Name, "E4009", "superclass must be a template")
		}
		superclass = cls

		i.env = i.newFrame(i.env)
		i.env.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = &Function{
			Decl:          m,
			Closure:       i.env,
			IsInitializer: m.Name.Lexeme == "initialize",
		}
	}

	if superclass != nil {
		i.env = i.env.Enclosing()
	}

	cls := &Class{Name: s.Name.Lexeme, Superclass: superclass, Methods: methods}
	if err := i.env.Assign(s.Name, cls); err != nil {
		return resultNone, err
	}
	i.log.Debug("template declared",
		zap.String("name", cls.Name),
		zap.Int("methods", len(methods)),
		zap.Bool("subclass", superclass != nil))
	return resultNone, nil
}

// callFunction runs fn's body in a new frame enclosing its closure. The
// caller has already checked the arity.
func (i *Interpreter) callFunction(fn *Function, args []Value) (Value, error) {
	env := i.newFrame(fn.Closure)
	for idx, param := range fn.Decl.Params {
		env.Define(param.Lexeme, args[idx])
	}

	result, err := i.executeBlock(fn.Decl.Body, env)
	if err != nil {
		return nil, err
	}

	if fn.IsInitializer {
		return fn.Closure.GetAt(0, "this"), nil
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return NilVal{}, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evaluate(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e.Value), nil

	case *ast.GroupingExpr:
		return i.evaluate(e.Inner)

	case *ast.UnaryExpr:
		return i.evalUnary(e)

	case *ast.BinaryExpr:
		return i.evalBinary(e)

	case *ast.LogicalExpr:
		left, err := i.evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		if e.Op.Kind == token.KW_OR {
			if IsTruthy(left) {
				return left, nil // short-circuit
			}
		} else if !IsTruthy(left) {
			return left, nil // short-circuit
		}
		return i.evaluate(e.Right)

	case *ast.VariableExpr:
		return i.lookUpVariable(e.Name, e.ID)

	case *ast.AssignExpr:
		val, err := i.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		if distance, ok := i.locals[e.ID]; ok {
			i.env.AssignAt(distance, e.Name.Lexeme, val)
		} else if err := i.globals.Assign(e.Name, val); err != nil {
			return nil, err
		}
		return val, nil

	case *ast.CallExpr:
		return i.evalCall(e)

	case *ast.GetExpr:
		obj, err := i.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErr(e.Name, "E4007", "only instances have properties")
		}
		return instance.Get(i, e.Name)

	case *ast.SetExpr:
		obj, err := i.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErr(e.Name, "E4008", "only instances have fields")
		}
		val, err := i.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		instance.Set(e.Name, val)
		return val, nil

	case *ast.ThisExpr:
		return i.lookUpVariable(e.Keyword, e.ID)

	case *ast.SuperExpr:
		return i.evalSuper(e)

	default:
		panic(fmt.Sprintf("interpreter: unhandled expression %T", expr))
	}
}

func literalValue(v any) Value {
	switch val := v.(type) {
	case nil:
		return NilVal{}
	case bool:
		return BoolVal(val)
	case float64:
		return NumberVal(val)
	case string:
		return StringVal(val)
	default:
		panic(fmt.Sprintf("interpreter: unexpected literal %T", v))
	}
}

func (i *Interpreter) lookUpVariable(name token.Token, id ast.ExprID) (Value, error) {
	if distance, ok := i.locals[id]; ok {
		return i.env.GetAt(distance, name.Lexeme), nil
	}
	return i.globals.Get(name)
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	right, err := i.evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.BANG:
		return BoolVal(!IsTruthy(right)), nil
	case token.MINUS:
		n, ok := right.(NumberVal)
		if !ok {
			return nil, runtimeErr(e.Op, "E4003", "operand must be a number")
		}
		return -n, nil
	default:
		panic(fmt.Sprintf("interpreter: unknown unary operator %s", e.Op.Kind))
	}
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.EQUAL_EQUAL:
		return BoolVal(isEqual(left, right)), nil
	case token.BANG_EQUAL:
		return BoolVal(!isEqual(left, right)), nil
	case token.PLUS:
		if l, ok := left.(NumberVal); ok {
			if r, ok := right.(NumberVal); ok {
				return l + r, nil
			}
		}
		if l, ok := left.(StringVal); ok {
			if r, ok := right.(StringVal); ok {
				return l + r, nil
			}
		}
		return nil, runtimeErr(e.Op, "E4004", "operands must be two numbers or two strings")
	}

	l, lok := left.(NumberVal)
	r, rok := right.(NumberVal)
	if !lok || !rok {
		return nil, runtimeErr(e.Op, "E4003", "operands must be numbers")
	}

	switch e.Op.Kind {
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		// IEEE: x/0 is ±Infinity or NaN
		return l / r, nil
	case token.GREATER:
		return BoolVal(l > r), nil
	case token.GREATER_EQUAL:
		return BoolVal(l >= r), nil
	case token.LESS:
		return BoolVal(l < r), nil
	case token.LESS_EQUAL:
		return BoolVal(l <= r), nil
	default:
		panic(fmt.Sprintf("interpreter: unknown binary operator %s", e.Op.Kind))
	}
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evaluate(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evaluate(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr(e.Paren, "E4005", "can only call functions and templates")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErr(e.Paren, "E4006", "expected %d arguments but got %d", fn.Arity(), len(args))
	}

	if i.metrics != nil {
		i.metrics.RecordCall(callKind(fn))
	}
	return fn.Call(i, args)
}

func callKind(fn Callable) string {
	switch fn.(type) {
	case *Class:
		return metrics.CallClass
	case *NativeFunction:
		return metrics.CallNative
	default:
		return metrics.CallFunction
	}
}

// evalSuper looks the method up starting at the superclass captured when the
// enclosing template was declared, and binds it to the current receiver.
func (i *Interpreter) evalSuper(e *ast.SuperExpr) (Value, error) {
	distance := i.locals[e.ID]
	superclass := i.env.GetAt(distance, "super").(*Class)
	receiver := i.env.GetAt(distance-1, "this").(*Instance)

	method := superclass.FindMethod(e.Method.Lexeme)
	if method == nil {
		return nil, runtimeErr(e.Method, "E4002", "undefined property '%s'", e.Method.Lexeme)
	}
	return method.Bind(i, receiver), nil
}
