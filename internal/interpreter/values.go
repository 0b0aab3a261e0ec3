package interpreter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/loxlang/golox/internal/ast"
	"github.com/loxlang/golox/internal/loxerr"
	"github.com/loxlang/golox/internal/token"
)

// Runtime values are represented with plain Go values wherever a direct mapping exists:
//
//	Nil      -> nil
//	Bool     -> bool
//	Number   -> float64
//	Str      -> string
//	Function -> *function
//	Class    -> *class
//	Instance -> *instance
//
// callable is implemented by anything that can appear as the callee of a CallExpr.
type callable interface {
	arity() int
	call(in *Interpreter, args []any) any
	String() string
}

// function is a user-defined Lox function or method: its declaration, the environment captured at
// definition, and whether it's a class initializer (which always yields the bound instance).
type function struct {
	decl          *ast.FunDecl
	fun           *ast.FunctionLit
	name          string
	closure       *environment
	isInitializer bool
}

func (f *function) arity() int { return len(f.fun.Params) }

func (f *function) String() string { return fmt.Sprintf("<fn %s>", f.name) }

func (f *function) call(in *Interpreter, args []any) (result any) {
	env := newEnvironment(f.closure)
	for i, param := range f.fun.Params {
		env.define(param.Name(), args[i])
	}

	defer func() {
		if r := recover(); r != nil {
			ret, ok := r.(returnSignal)
			if !ok {
				panic(r)
			}
			if f.isInitializer {
				result = f.closure.getAt(0, token.ThisIdent)
				return
			}
			result = ret.value
		}
	}()

	in.executeBlock(f.fun.Body, env)

	if f.isInitializer {
		return f.closure.getAt(0, token.ThisIdent)
	}
	return nil
}

// bind returns a new function identical to f except that its captured environment is a one-slot
// frame defining 'this' as instance, enclosing f's original closure.
func (f *function) bind(instance *instance) *function {
	env := newEnvironment(f.closure)
	env.define(token.ThisIdent, instance)
	return &function{decl: f.decl, fun: f.fun, name: f.name, closure: env, isInitializer: f.isInitializer}
}

// returnSignal is panicked by a return statement to unwind the Go call stack up to the enclosing
// function.call, which recovers it. It is not a user-visible error.
type returnSignal struct {
	value any
}

// class is a user-defined Lox class: its name, its own methods, and an optional superclass.
type class struct {
	name       string
	superclass *class
	methods    map[string]*function
}

func (c *class) arity() int {
	if init := c.findMethod("init"); init != nil {
		return init.arity()
	}
	return 0
}

func (c *class) String() string { return c.name }

func (c *class) call(in *Interpreter, args []any) any {
	inst := &instance{class: c, fields: map[string]any{}}
	if init := c.findMethod(token.InitIdent); init != nil {
		init.bind(inst).call(in, args)
	}
	return inst
}

// findMethod searches c's own methods, then recurses into its superclass chain.
func (c *class) findMethod(name string) *function {
	if m, ok := c.methods[name]; ok {
		return m
	}
	if c.superclass != nil {
		return c.superclass.findMethod(name)
	}
	return nil
}

// instance is an instantiation of a user-defined class: a pointer to its class plus a mutable
// field map. Field reads fall back to the class's method chain; field writes always target the
// instance.
type instance struct {
	class  *class
	fields map[string]any
}

func (i *instance) String() string { return i.class.name + " instance" }

func (i *instance) get(name *ast.Ident) any {
	if v, ok := i.fields[name.Name()]; ok {
		return v
	}
	if m := i.class.findMethod(name.Name()); m != nil {
		return m.bind(i)
	}
	panic(newRuntimeError(name.Tok, "Undefined property '"+name.Name()+"'."))
}

func (i *instance) set(name *ast.Ident, v any) {
	i.fields[name.Name()] = v
}

// isTruthy reports whether v is considered true in a boolean context: everything except nil and
// the boolean false is truthy.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// isEqual implements Lox equality: defined only within a kind; nil equals nil; otherwise
// cross-kind comparisons are false. Functions compare by name and parameter names (so two
// bindings of the same method are equal), classes by name, and other values by Go equality.
func isEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	af, aIsNum := a.(float64)
	bf, bIsNum := b.(float64)
	if aIsNum && bIsNum {
		return af == bf
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}
	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return ab == bb
	}
	if afn, ok := a.(*function); ok {
		bfn, ok := b.(*function)
		if !ok || afn.name != bfn.name || len(afn.fun.Params) != len(bfn.fun.Params) {
			return false
		}
		for i, p := range afn.fun.Params {
			if p.Name() != bfn.fun.Params[i].Name() {
				return false
			}
		}
		return true
	}
	if ac, ok := a.(*class); ok {
		bc, ok := b.(*class)
		return ok && ac.name == bc.name
	}
	return a == b
}

// stringify renders v the way a print statement would.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatNumber(v)
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatNumber renders f the way Lox does: the shortest decimal representation, with no trailing
// ".0" for integral values.
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, "eE") {
		// Large/small magnitudes: fall back to a plain decimal form without scientific notation.
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}

func newRuntimeError(tok token.Token, msg string) *loxerr.RuntimeError {
	return loxerr.AtRuntime(tok, msg)
}
