// Package resolver implements the static name-resolution pass that runs between parsing and
// tree-walking evaluation. It computes, for every variable read or write, the lexical depth at
// which the binding will be found at runtime, and rejects a handful of statically-detectable
// errors (illegal return, illegal this/super, self-inheriting classes, and so on).
package resolver

import (
	"github.com/loxlang/golox/internal/ast"
	"github.com/loxlang/golox/internal/loxerr"
	"github.com/loxlang/golox/internal/stack"
	"github.com/loxlang/golox/internal/token"
)

// Locals maps an expression node to the number of enclosing environments to skip in order to find
// its binding. Expressions absent from the map are resolved against the global environment at
// runtime. Keyed by pointer identity: see the doc comment on ast.Expr.
type Locals map[ast.Expr]int

type identStatus int

const (
	undeclared identStatus = iota
	declared
	defined
)

type functionType int

const (
	noFunction functionType = iota
	funType
	method
	initializer
)

type classType int

const (
	noClass classType = iota
	classTyp
	subclass
)

// Resolve walks prog and returns the locals table described above. Resolution continues past
// errors, so if any are found, a non-nil error listing all of them is returned alongside the locals
// table for the whole program.
func Resolve(prog *ast.Program) (Locals, error) {
	r := &resolver{locals: Locals{}}
	r.resolveStmts(prog.Stmts)
	return r.locals, r.errs.Err()
}

type resolver struct {
	scopes          stack.Stack[map[string]identStatus]
	locals          Locals
	errs            loxerr.Errors
	currentFunction functionType
	currentClass    classType
}

func (r *resolver) beginScope() {
	r.scopes.Push(map[string]identStatus{})
}

func (r *resolver) endScope() {
	r.scopes.Pop()
}

func (r *resolver) scope() map[string]identStatus {
	if r.scopes.Len() == 0 {
		return nil
	}
	return r.scopes.Peek()
}

func (r *resolver) declare(name *ast.Ident) {
	scope := r.scope()
	if scope == nil {
		return
	}
	if _, ok := scope[name.Name()]; ok {
		r.errAt(name.Tok, "Already a variable with this name in this scope.")
	}
	scope[name.Name()] = declared
}

func (r *resolver) define(name *ast.Ident) {
	scope := r.scope()
	if scope == nil {
		return
	}
	scope[name.Name()] = defined
}

func (r *resolver) resolveLocal(expr ast.Expr, name string) {
	for i, scope := range r.scopes.Backward() {
		if _, ok := scope[name]; ok {
			r.locals[expr] = r.scopes.Len() - 1 - i
			return
		}
	}
	// Not found in any enclosing scope: treated as a global at runtime.
}

func (r *resolver) resolveStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.ExpressionStmt:
		r.resolveExpr(stmt.Expr)
	case *ast.PrintStmt:
		r.resolveExpr(stmt.Expr)
	case *ast.VarDecl:
		r.declare(stmt.Name)
		if stmt.Init != nil {
			r.resolveExpr(stmt.Init)
		}
		r.define(stmt.Name)
	case *ast.FunDecl:
		r.declare(stmt.Name)
		r.define(stmt.Name)
		r.resolveFunction(stmt.Fun, funType)
	case *ast.ClassDecl:
		r.resolveClassDecl(stmt)
	case *ast.Block:
		r.beginScope()
		r.resolveStmts(stmt.Stmts)
		r.endScope()
	case *ast.IfStmt:
		r.resolveExpr(stmt.Condition)
		r.resolveStmt(stmt.Then)
		if stmt.Else != nil {
			r.resolveStmt(stmt.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(stmt.Condition)
		r.resolveStmt(stmt.Body)
	case *ast.ReturnStmt:
		if r.currentFunction == noFunction {
			r.errAt(stmt.Keyword, "Can't return from top-level code.")
		}
		if stmt.Value != nil {
			if r.currentFunction == initializer {
				r.errAt(stmt.Keyword, "Can't return a value from an initializer.")
			}
			r.resolveExpr(stmt.Value)
		}
	default:
		panic("resolver: unhandled statement type")
	}
}

func (r *resolver) resolveClassDecl(decl *ast.ClassDecl) {
	enclosingClass := r.currentClass
	r.currentClass = classTyp
	defer func() { r.currentClass = enclosingClass }()

	r.declare(decl.Name)
	r.define(decl.Name)

	if decl.Superclass != nil {
		if decl.Superclass.Name.Name() == decl.Name.Name() {
			r.errAt(decl.Superclass.Name.Tok, "A class can't inherit from itself.")
		}
		r.currentClass = subclass
		r.resolveExpr(decl.Superclass)

		r.beginScope()
		r.scope()["super"] = defined
	}

	r.beginScope()
	r.scope()["this"] = defined

	for _, m := range decl.Methods {
		fnType := method
		if m.Name.Name() == token.InitIdent {
			fnType = initializer
		}
		r.resolveFunction(m.Fun, fnType)
	}

	r.endScope()

	if decl.Superclass != nil {
		r.endScope()
	}
}

func (r *resolver) resolveFunction(fun *ast.FunctionLit, typ functionType) {
	enclosingFunction := r.currentFunction
	r.currentFunction = typ
	defer func() { r.currentFunction = enclosingFunction }()

	r.beginScope()
	for _, param := range fun.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(fun.Body)
	r.endScope()
}

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch expr := expr.(type) {
	case *ast.LiteralExpr:
		// nothing to resolve
	case *ast.VarExpr:
		if scope := r.scope(); scope != nil {
			if status, ok := scope[expr.Name.Name()]; ok && status == declared {
				r.errAt(expr.Name.Tok, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(expr, expr.Name.Name())
	case *ast.AssignExpr:
		r.resolveExpr(expr.Value)
		r.resolveLocal(expr, expr.Name.Name())
	case *ast.GroupingExpr:
		r.resolveExpr(expr.Expr)
	case *ast.UnaryExpr:
		r.resolveExpr(expr.Right)
	case *ast.BinaryExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *ast.LogicalExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *ast.CallExpr:
		r.resolveExpr(expr.Callee)
		for _, arg := range expr.Args {
			r.resolveExpr(arg)
		}
	case *ast.GetExpr:
		r.resolveExpr(expr.Object)
	case *ast.SetExpr:
		r.resolveExpr(expr.Value)
		r.resolveExpr(expr.Object)
	case *ast.ThisExpr:
		if r.currentClass == noClass {
			r.errAt(expr.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(expr, token.ThisIdent)
	case *ast.SuperExpr:
		switch r.currentClass {
		case noClass:
			r.errAt(expr.Keyword, "Can't use 'super' outside of a class.")
		case classTyp:
			r.errAt(expr.Keyword, "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(expr, "super")
	default:
		panic("resolver: unhandled expression type")
	}
}

func (r *resolver) errAt(tok token.Token, msg string) {
	r.errs = append(r.errs, loxerr.AtToken(tok, msg))
}
