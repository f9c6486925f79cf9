package goast

import (
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/gnolang/astrule/internal/term"
)

// kinds is every concrete node type of go/ast.
var kinds = []term.Kind{
	"ArrayType", "AssignStmt", "BadDecl", "BadExpr", "BadStmt", "BasicLit",
	"BinaryExpr", "BlockStmt", "BranchStmt", "CallExpr", "CaseClause",
	"ChanType", "CommClause", "Comment", "CommentGroup", "CompositeLit",
	"DeclStmt", "DeferStmt", "Ellipsis", "EmptyStmt", "ExprStmt", "Field",
	"FieldList", "File", "ForStmt", "FuncDecl", "FuncLit", "FuncType",
	"GenDecl", "GoStmt", "Ident", "IfStmt", "ImportSpec", "IncDecStmt",
	"IndexExpr", "IndexListExpr", "InterfaceType", "KeyValueExpr",
	"LabeledStmt", "MapType", "Package", "ParenExpr", "RangeStmt",
	"ReturnStmt", "SelectStmt", "SelectorExpr", "SendStmt", "SliceExpr",
	"StarExpr", "StructType", "SwitchStmt", "TypeAssertExpr", "TypeSpec",
	"TypeSwitchStmt", "UnaryExpr", "ValueSpec",
}

// Kinds returns the node kinds a rule may name in is(...).
func Kinds() []term.Kind {
	out := make([]term.Kind, len(kinds))
	copy(out, kinds)
	return out
}

// KindOf returns the kind name of an ast node.
func KindOf(n ast.Node) term.Kind {
	t := reflect.TypeOf(n)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return term.Kind(t.Name())
}

// Walk calls fn for n and every node below it, in pre-order.
func Walk(n ast.Node, fset *token.FileSet, fn func(Node)) {
	ast.Inspect(n, func(child ast.Node) bool {
		if child == nil {
			return false
		}
		fn(Wrap(child, fset))
		return true
	})
}

// ParseFile parses a Go source file, keeping comments for nolint handling.
// src may be nil, in which case the file is read from disk.
func ParseFile(fset *token.FileSet, filename string, src any) (*ast.File, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filename)
	}
	return f, nil
}
