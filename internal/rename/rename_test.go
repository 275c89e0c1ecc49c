package rename

import (
	"testing"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

func testFormats() Formats {
	return Formats{
		Classes: "Class%d", Consts: "CONST_%d", Functions: "func%d",
		Names: "field%d", Vars: "var%d", Methods: "method%d", Errors: "error%d",
	}
}

func TestInvalidDetectsNonPrintable(t *testing.T) {
	if Invalid("GameRolePlay") {
		t.Fatalf("Invalid flagged a clean printable name")
	}
	if !Invalid("\x01\x02\x03") {
		t.Fatalf("Invalid accepted a non-printable garbled name")
	}
}

func TestRenameClassAssignsSequentialNames(t *testing.T) {
	pool := abcmodel.NewPool()
	garbled := pool.AppendString("\x01\x02")
	mn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: garbled})
	cls := &abcmodel.Class{Name: mn}
	f := &abcmodel.File{Pool: pool, Classes: []*abcmodel.Class{cls}}

	r := New(pool, testFormats())
	r.RenameAll(f)

	got := pool.MultinameString(mn)
	if got != "Class1" {
		t.Fatalf("renamed class = %q, want Class1", got)
	}
}

func TestRenameSingleExceptionUsesErrorLiteral(t *testing.T) {
	pool := abcmodel.NewPool()
	garbled := pool.AppendString("\x05")
	mn := pool.AppendMultiname(abcmodel.Multiname{Kind: abcmodel.MultinameQName, Name: garbled})
	m := &abcmodel.Method{Exceptions: []abcmodel.Exception{{VarName: mn}}}
	f := &abcmodel.File{Pool: pool, Methods: []*abcmodel.Method{m}}

	r := New(pool, testFormats())
	r.RenameAll(f)

	if got := pool.MultinameString(mn); got != "error" {
		t.Fatalf("renamed exception var = %q, want literal \"error\"", got)
	}
}
