package parser_test

import (
	"strings"
	"testing"

	"github.com/loxlang/golox/internal/ast"
	"github.com/loxlang/golox/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse(%q) returned unexpected error: %s", src, err)
	}
	return prog
}

func TestParseExpressionStmt(t *testing.T) {
	prog := mustParse(t, "1 + 2 * 3;")
	if len(prog.Stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Stmts))
	}
	exprStmt, ok := prog.Stmts[0].(*ast.ExpressionStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ExpressionStmt", prog.Stmts[0])
	}
	bin, ok := exprStmt.Expr.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expression is %T, want *ast.BinaryExpr", exprStmt.Expr)
	}
	if bin.Op.Lexeme != "+" {
		t.Errorf("top-level operator = %q, want %q (multiplication should bind tighter)", bin.Op.Lexeme, "+")
	}
	if _, ok := bin.Right.(*ast.BinaryExpr); !ok {
		t.Errorf("right operand is %T, want *ast.BinaryExpr for '2 * 3'", bin.Right)
	}
}

func TestParseForDesugarsToWhile(t *testing.T) {
	prog := mustParse(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	block, ok := prog.Stmts[0].(*ast.Block)
	if !ok {
		t.Fatalf("desugared for is %T, want *ast.Block", prog.Stmts[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("got %d statements in desugared block, want 2 (init; while)", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*ast.VarDecl); !ok {
		t.Errorf("first desugared statement is %T, want *ast.VarDecl", block.Stmts[0])
	}
	if _, ok := block.Stmts[1].(*ast.WhileStmt); !ok {
		t.Errorf("second desugared statement is %T, want *ast.WhileStmt", block.Stmts[1])
	}
}

func TestParseIfWithoutElse(t *testing.T) {
	prog := mustParse(t, "if (true) print 1;")
	ifStmt := prog.Stmts[0].(*ast.IfStmt)
	if ifStmt.Else != nil {
		t.Errorf("Else = %#v, want nil", ifStmt.Else)
	}
}

func TestParseClassWithSuperclass(t *testing.T) {
	prog := mustParse(t, "class B < A { m() {} }")
	decl := prog.Stmts[0].(*ast.ClassDecl)
	if decl.Superclass == nil {
		t.Fatal("Superclass = nil, want non-nil")
	}
	if decl.Superclass.Name.Name() != "A" {
		t.Errorf("Superclass name = %q, want %q", decl.Superclass.Name.Name(), "A")
	}
	if len(decl.Methods) != 1 || decl.Methods[0].Name.Name() != "m" {
		t.Errorf("Methods = %v, want a single method named 'm'", decl.Methods)
	}
}

func TestParseErrorFormat(t *testing.T) {
	_, err := parser.Parse([]byte("1 +;"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.HasPrefix(err.Error(), "Error at ") {
		t.Errorf("error message %q doesn't start with %q", err.Error(), "Error at ")
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, err := parser.Parse([]byte("1 = 2;"))
	if err == nil {
		t.Fatal("expected a parse error for an invalid assignment target")
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	// The first statement is malformed; the parser should synchronise at the ';' and still parse
	// the second statement so that callers see as many real errors as possible in one pass.
	prog, err := parser.Parse([]byte("var; print 1;"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if len(prog.Stmts) == 0 {
		t.Fatal("expected the parser to recover and continue producing statements")
	}
	last := prog.Stmts[len(prog.Stmts)-1]
	printStmt, ok := last.(*ast.PrintStmt)
	if !ok {
		t.Fatalf("last recovered statement is %T, want *ast.PrintStmt", last)
	}
	lit := printStmt.Expr.(*ast.LiteralExpr)
	if lit.Value != 1.0 {
		t.Errorf("recovered print value = %v, want 1", lit.Value)
	}
}
