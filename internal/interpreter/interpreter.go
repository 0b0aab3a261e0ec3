// Package interpreter implements the tree-walking evaluator: a statement/expression visitor over
// the AST produced by internal/parser and annotated by internal/resolver.
package interpreter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/loxlang/golox/internal/ast"
	"github.com/loxlang/golox/internal/loxerr"
	"github.com/loxlang/golox/internal/resolver"
	"github.com/loxlang/golox/internal/token"
)

// Option configures an Interpreter constructed with New.
type Option func(*Interpreter)

// Stdout overrides the writer that Print statements write to. The default is os.Stdout.
func Stdout(w io.Writer) Option {
	return func(in *Interpreter) { in.stdout = w }
}

// Interpreter evaluates a resolved AST. A single Interpreter can run multiple top-level programs
// in sequence against the same global environment, which is what powers the REPL.
type Interpreter struct {
	globals *environment
	env     *environment
	locals  resolver.Locals
	stdout  io.Writer
}

// New constructs an Interpreter with a fresh global environment populated with the builtins.
func New(opts ...Option) *Interpreter {
	globals := newEnvironment(nil)
	in := &Interpreter{globals: globals, env: globals, stdout: os.Stdout}
	for _, opt := range opts {
		opt(in)
	}
	defineBuiltins(globals)
	return in
}

// Interpret executes prog's statements using the given locals table (as produced by
// resolver.Resolve) against in's (possibly already-populated) global environment.
//
// Runtime errors are recovered and returned as an error; they do not leave variables or
// statements partially applied beyond whatever already ran before the error, matching the
// reference implementation's abort-on-first-error behaviour.
func (in *Interpreter) Interpret(prog *ast.Program, locals resolver.Locals) (err error) {
	in.locals = locals

	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(*loxerr.RuntimeError)
			if !ok {
				panic(r)
			}
			err = rerr
		}
	}()

	for _, stmt := range prog.Stmts {
		in.execStmt(stmt)
	}
	return nil
}

// execStmt executes a single statement. A return statement panics with a returnSignal carrying
// its value; the signal unwinds through any enclosing blocks and is recovered by function.call at
// the function boundary, so the unwind never crosses more than one call frame.
//
// Runtime errors also use panic/recover (via *loxerr.RuntimeError), since those abort the whole
// program; Interpret recovers them and returns them as an error.
func (in *Interpreter) execStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.ExpressionStmt:
		in.eval(stmt.Expr)
	case *ast.PrintStmt:
		v := in.eval(stmt.Expr)
		fmt.Fprintln(in.stdout, stringify(v))
	case *ast.VarDecl:
		var v any
		if stmt.Init != nil {
			v = in.eval(stmt.Init)
		}
		in.env.define(stmt.Name.Name(), v)
	case *ast.FunDecl:
		fn := &function{decl: stmt, fun: stmt.Fun, name: stmt.Name.Name(), closure: in.env}
		in.env.define(stmt.Name.Name(), fn)
	case *ast.ClassDecl:
		in.execClassDecl(stmt)
	case *ast.Block:
		in.executeBlock(stmt.Stmts, newEnvironment(in.env))
	case *ast.IfStmt:
		if isTruthy(in.eval(stmt.Condition)) {
			in.execStmt(stmt.Then)
		} else if stmt.Else != nil {
			in.execStmt(stmt.Else)
		}
	case *ast.WhileStmt:
		for isTruthy(in.eval(stmt.Condition)) {
			in.execStmt(stmt.Body)
		}
	case *ast.ReturnStmt:
		var v any
		if stmt.Value != nil {
			v = in.eval(stmt.Value)
		}
		panic(returnSignal{value: v})
	default:
		panic(fmt.Sprintf("interpreter: unhandled statement type %T", stmt))
	}
}

// executeBlock runs stmts in env, unconditionally restoring the previous environment on every
// exit path (normal completion, a return unwind, or a runtime error).
func (in *Interpreter) executeBlock(stmts []ast.Stmt, env *environment) {
	previous := in.env
	in.env = env
	defer func() { in.env = previous }()

	for _, stmt := range stmts {
		in.execStmt(stmt)
	}
}

func (in *Interpreter) execClassDecl(decl *ast.ClassDecl) {
	var superclass *class
	if decl.Superclass != nil {
		v := in.eval(decl.Superclass)
		sc, ok := v.(*class)
		if !ok {
			panic(newRuntimeError(decl.Superclass.Name.Tok, "Superclass must be a class."))
		}
		superclass = sc
	}

	in.env.define(decl.Name.Name(), nil)

	env := in.env
	if decl.Superclass != nil {
		env = newEnvironment(in.env)
		env.define("super", superclass)
	}

	methods := map[string]*function{}
	for _, m := range decl.Methods {
		methods[m.Name.Name()] = &function{
			decl:          m,
			fun:           m.Fun,
			name:          m.Name.Name(),
			closure:       env,
			isInitializer: m.Name.Name() == token.InitIdent,
		}
	}

	c := &class{name: decl.Name.Name(), superclass: superclass, methods: methods}
	in.env.assign(decl.Name.Tok, c)
}

func (in *Interpreter) eval(expr ast.Expr) any {
	switch expr := expr.(type) {
	case *ast.LiteralExpr:
		return expr.Value
	case *ast.VarExpr:
		return in.lookupVar(expr.Name.Tok, expr)
	case *ast.AssignExpr:
		v := in.eval(expr.Value)
		if depth, ok := in.locals[expr]; ok {
			in.env.assignAt(depth, expr.Name.Name(), v)
		} else {
			in.globals.assign(expr.Name.Tok, v)
		}
		return v
	case *ast.GroupingExpr:
		return in.eval(expr.Expr)
	case *ast.UnaryExpr:
		return in.evalUnary(expr)
	case *ast.BinaryExpr:
		return in.evalBinary(expr)
	case *ast.LogicalExpr:
		return in.evalLogical(expr)
	case *ast.CallExpr:
		return in.evalCall(expr)
	case *ast.GetExpr:
		return in.evalGet(expr)
	case *ast.SetExpr:
		return in.evalSet(expr)
	case *ast.ThisExpr:
		return in.lookupVarNamed(expr.Keyword, expr, token.ThisIdent)
	case *ast.SuperExpr:
		return in.evalSuper(expr)
	default:
		panic(fmt.Sprintf("interpreter: unhandled expression type %T", expr))
	}
}

func (in *Interpreter) lookupVar(tok token.Token, expr ast.Expr) any {
	if depth, ok := in.locals[expr]; ok {
		return in.env.getAt(depth, tok.Lexeme)
	}
	return in.globals.get(tok)
}

func (in *Interpreter) lookupVarNamed(tok token.Token, expr ast.Expr, name string) any {
	if depth, ok := in.locals[expr]; ok {
		return in.env.getAt(depth, name)
	}
	return in.globals.get(tok)
}

func (in *Interpreter) evalUnary(expr *ast.UnaryExpr) any {
	right := in.eval(expr.Right)
	switch expr.Op.Type {
	case token.Minus:
		n, ok := right.(float64)
		if !ok {
			panic(newRuntimeError(expr.Op, "Operand must be a number."))
		}
		return -n
	case token.Bang:
		return !isTruthy(right)
	default:
		panic(fmt.Sprintf("interpreter: unhandled unary operator %s", expr.Op.Type))
	}
}

func (in *Interpreter) evalBinary(expr *ast.BinaryExpr) any {
	left := in.eval(expr.Left)
	right := in.eval(expr.Right)

	switch expr.Op.Type {
	case token.Plus:
		if ln, lok := left.(float64); lok {
			if rn, rok := right.(float64); rok {
				return ln + rn
			}
		}
		if ls, lok := left.(string); lok {
			if rs, rok := right.(string); rok {
				return ls + rs
			}
		}
		panic(newRuntimeError(expr.Op, "Operands must be two numbers or two strings."))
	case token.Minus:
		l, r := numberOperands(expr.Op, left, right)
		return l - r
	case token.Star:
		l, r := numberOperands(expr.Op, left, right)
		return l * r
	case token.Slash:
		l, r := numberOperands(expr.Op, left, right)
		return l / r
	case token.Greater:
		l, r := numberOperands(expr.Op, left, right)
		return l > r
	case token.GreaterEqual:
		l, r := numberOperands(expr.Op, left, right)
		return l >= r
	case token.Less:
		l, r := numberOperands(expr.Op, left, right)
		return l < r
	case token.LessEqual:
		l, r := numberOperands(expr.Op, left, right)
		return l <= r
	case token.EqualEqual:
		return isEqual(left, right)
	case token.BangEqual:
		return !isEqual(left, right)
	default:
		panic(fmt.Sprintf("interpreter: unhandled binary operator %s", expr.Op.Type))
	}
}

func numberOperands(op token.Token, left, right any) (float64, float64) {
	l, lok := left.(float64)
	r, rok := right.(float64)
	if !lok || !rok {
		panic(newRuntimeError(op, "Operands must be numbers."))
	}
	return l, r
}

func (in *Interpreter) evalLogical(expr *ast.LogicalExpr) any {
	left := in.eval(expr.Left)
	switch expr.Op.Type {
	case token.Or:
		if isTruthy(left) {
			return left
		}
	case token.And:
		if !isTruthy(left) {
			return left
		}
	}
	return in.eval(expr.Right)
}

func (in *Interpreter) evalCall(expr *ast.CallExpr) any {
	callee := in.eval(expr.Callee)

	args := make([]any, len(expr.Args))
	for i, a := range expr.Args {
		args[i] = in.eval(a)
	}

	fn, ok := callee.(callable)
	if !ok {
		panic(newRuntimeError(expr.Paren, "Can only call functions and classes."))
	}
	if len(args) != fn.arity() {
		panic(newRuntimeError(expr.Paren, fmt.Sprintf("Expected %d arguments but got %d.", fn.arity(), len(args))))
	}
	return fn.call(in, args)
}

func (in *Interpreter) evalGet(expr *ast.GetExpr) any {
	obj := in.eval(expr.Object)
	inst, ok := obj.(*instance)
	if !ok {
		panic(newRuntimeError(expr.Name.Tok, "Only instances have properties."))
	}
	return inst.get(expr.Name)
}

func (in *Interpreter) evalSet(expr *ast.SetExpr) any {
	obj := in.eval(expr.Object)
	inst, ok := obj.(*instance)
	if !ok {
		panic(newRuntimeError(expr.Name.Tok, "Only instances have fields."))
	}
	v := in.eval(expr.Value)
	inst.set(expr.Name, v)
	return v
}

func (in *Interpreter) evalSuper(expr *ast.SuperExpr) any {
	depth := in.locals[expr]
	superVal := in.env.getAt(depth, "super")
	sc := superVal.(*class)
	thisVal := in.env.getAt(depth-1, token.ThisIdent)
	thisInst := thisVal.(*instance)

	method := sc.findMethod(expr.Method.Name())
	if method == nil {
		panic(newRuntimeError(expr.Method.Tok, "Undefined property '"+expr.Method.Name()+"'."))
	}
	return method.bind(thisInst)
}

// nowSeconds is used by the clock() builtin.
func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
