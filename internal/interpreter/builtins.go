package interpreter

// nativeFunction is a builtin implemented in Go rather than compiled from Lox source.
type nativeFunction struct {
	name string
	n    int
	fn   func(args []any) any
}

func (f *nativeFunction) arity() int          { return f.n }
func (f *nativeFunction) String() string      { return "<native fn " + f.name + ">" }
func (f *nativeFunction) call(_ *Interpreter, args []any) any { return f.fn(args) }

// defineBuiltins installs the small set of native functions available to every Lox program.
func defineBuiltins(globals *environment) {
	globals.define("clock", &nativeFunction{
		name: "clock",
		n:    0,
		fn:   func(args []any) any { return nowSeconds() },
	})
}
