// Package extract maps top-level class, interface and type alias
// declarations onto model statements.
package extract

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/typelens/internal/lang"
	"github.com/phobologic/typelens/internal/model"
	"github.com/phobologic/typelens/internal/normalize"
)

var (
	// ErrMissingName is matched by errors for anonymous declarations.
	ErrMissingName = errors.New("declaration has no name")
	// ErrUnsupported is matched when Declaration is given a node that is not
	// a class, interface or type alias.
	ErrUnsupported = errors.New("unsupported declaration")
)

// Error describes one declaration that could not be extracted.
type Error struct {
	Path string
	Kind string // syntax node kind of the declaration
	Line int    // 1-based
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.Path, e.Line, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// File extracts every top-level declaration under root in source order.
// A failing declaration is returned in errs and does not affect its siblings.
// root must have been parsed with l's grammar.
func File(l *lang.Language, root *sitter.Node, source []byte, path string, maxDepth int) (stmts []model.Statement, errs []error) {
	decls, err := TopLevel(l, root, source)
	if err != nil {
		return nil, []error{err}
	}
	n := normalize.New(source, maxDepth)
	for _, decl := range decls {
		stmt, err := Declaration(n, decl, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, errs
}

// TopLevel returns the class, interface and type alias nodes directly under
// a program node in source order, looking through export and declare
// wrappers. Declarations nested in functions, blocks or namespaces are not
// visited.
func TopLevel(l *lang.Language, root *sitter.Node, source []byte) ([]*sitter.Node, error) {
	query, err := l.GetDeclarationQuery()
	if err != nil {
		return nil, err
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var decls []*sitter.Node
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)
		for _, c := range match.Captures {
			decls = append(decls, c.Node)
		}
	}

	slices.SortStableFunc(decls, func(a, b *sitter.Node) int {
		return cmp.Compare(a.StartByte(), b.StartByte())
	})
	return decls, nil
}

// Declaration converts one class, interface or type alias node.
func Declaration(n *normalize.Normalizer, node *sitter.Node, path string) (model.Statement, error) {
	kind, ok := structureKind(node.Type())
	if !ok {
		return model.Statement{}, declError(node, path, ErrUnsupported)
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.Statement{}, declError(node, path, ErrMissingName)
	}

	stmt := model.Statement{
		Key: model.StructureKey{
			Name:       lang.NodeText(nameNode, n.Source),
			Kind:       kind,
			SourcePath: path,
		},
	}

	switch kind {
	case model.Class:
		stmt.Content = classFields(n, node.ChildByFieldName("body"))
	case model.Interface:
		stmt.Content = model.Fields(n.Fields(node.ChildByFieldName("body")))
	case model.TypeAlias:
		stmt.Content = aliasContent(n, node.ChildByFieldName("value"))
	}
	return stmt, nil
}

func structureKind(nodeType string) (model.StructureKind, bool) {
	switch nodeType {
	case "class_declaration", "abstract_class_declaration", "class":
		return model.Class, true
	case "interface_declaration":
		return model.Interface, true
	case "type_alias_declaration":
		return model.TypeAlias, true
	}
	return 0, false
}

// classFields keeps property members only. Methods, constructors,
// accessors, index signatures and static blocks are skipped.
func classFields(n *normalize.Normalizer, body *sitter.Node) model.Fields {
	if body == nil {
		return nil
	}
	var fields model.Fields
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "public_field_definition" && member.Type() != "field_definition" {
			continue
		}
		if f, ok := n.Field(member); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

func aliasContent(n *normalize.Normalizer, value *sitter.Node) model.Content {
	for value != nil && value.Type() == "parenthesized_type" {
		value = value.NamedChild(0)
	}
	if value == nil {
		return model.NoContent{}
	}

	switch value.Type() {
	case "object_type":
		return model.Fields(n.Fields(value))
	case "union_type":
		if u, ok := n.Normalize(value).(model.Union); ok {
			return model.UnionMembers(u.Members)
		}
	case "intersection_type":
		if x, ok := n.Normalize(value).(model.Intersection); ok {
			return model.IntersectionMembers(x.Members)
		}
	}
	return model.NoContent{}
}

func declError(node *sitter.Node, path string, err error) error {
	return &Error{
		Path: path,
		Kind: node.Type(),
		Line: int(node.StartPoint().Row) + 1,
		Err:  err,
	}
}
