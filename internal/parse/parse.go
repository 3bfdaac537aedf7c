// Package parse turns source text into a tree-sitter syntax tree.
package parse

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/typelens/internal/lang"
)

// ErrParse is the sentinel matched by every syntax error returned from Source.
var ErrParse = errors.New("syntax error")

// Error locates the first syntax error in a source file.
type Error struct {
	Line   int // 1-based
	Column int // 1-based
	Near   string
}

func (e *Error) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at %d:%d", e.Line, e.Column)
	}
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Near)
}

func (e *Error) Unwrap() error { return ErrParse }

// Options controls how strictly a tree is accepted.
type Options struct {
	// AllowSyntaxErrors keeps trees that contain ERROR or MISSING nodes.
	AllowSyntaxErrors bool
}

const maxNearLen = 40

// Source parses source with parser. The caller owns the returned tree and
// must Close it. A tree with syntax errors is closed and reported as *Error
// unless opts.AllowSyntaxErrors is set.
func Source(ctx context.Context, parser *sitter.Parser, source []byte, opts Options) (*sitter.Tree, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrap(err, "parsing source")
	}

	root := tree.RootNode()
	if opts.AllowSyntaxErrors || !root.HasError() {
		return tree, nil
	}

	perr := &Error{Line: 1, Column: 1}
	if bad := firstError(root); bad != nil {
		p := bad.StartPoint()
		perr.Line = int(p.Row) + 1
		perr.Column = int(p.Column) + 1
		near := lang.CollapseWhitespace(lang.NodeText(bad, source))
		if len(near) > maxNearLen {
			near = near[:maxNearLen] + "..."
		}
		perr.Near = near
	}
	tree.Close()
	return nil, perr
}

// firstError returns the first ERROR or MISSING node in document order.
// The walk is iterative and only descends into subtrees that contain errors.
func firstError(root *sitter.Node) *sitter.Node {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type() == "ERROR" || n.IsMissing() {
			return n
		}
		if !n.HasError() {
			continue
		}
		// Push children in reverse so the leftmost is visited first.
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if child := n.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return nil
}
