// Package normalize maps tree-sitter TypeScript type nodes onto the closed
// model.DataType description.
package normalize

import (
	"math"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/typelens/internal/lang"
	"github.com/phobologic/typelens/internal/model"
)

// DefaultMaxDepth bounds type nesting before Normalize gives up with Other.
const DefaultMaxDepth = 256

// DepthLimitKind is the Other.Kind reported when MaxDepth is exceeded.
const DepthLimitKind = "depth limit"

var keywords = map[string]model.Primitive{
	"any":           model.Any,
	"unknown":       model.Unknown,
	"number":        model.Number,
	"string":        model.String,
	"object":        model.Object,
	"bigint":        model.BigInt,
	"symbol":        model.Symbol,
	"unique symbol": model.Symbol,
	"void":          model.Void,
	"undefined":     model.Undefined,
	"null":          model.Null,
	"never":         model.Never,
	"boolean":       model.Boolean,
}

// Normalizer converts type nodes of one source file. It holds no mutable
// state and may be shared by the declarations of that file.
type Normalizer struct {
	Source   []byte
	MaxDepth int
}

// New returns a Normalizer over source. A non-positive maxDepth selects
// DefaultMaxDepth.
func New(source []byte, maxDepth int) *Normalizer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Normalizer{Source: source, MaxDepth: maxDepth}
}

// Normalize maps a type node to exactly one DataType. It never fails:
// unsupported syntax becomes model.Other.
func (n *Normalizer) Normalize(node *sitter.Node) model.DataType {
	return n.normalize(node, 0)
}

// Annotation normalizes the type inside a type_annotation node. A nil
// annotation is an implicit any.
func (n *Normalizer) Annotation(ann *sitter.Node) model.DataType {
	return n.annotation(ann, 0)
}

// Fields collects the property signatures of an object type body.
func (n *Normalizer) Fields(body *sitter.Node) []model.Field {
	return n.fields(body, 0)
}

// Field converts a property_signature or public_field_definition into a
// Field. ok is false when the member has no resolvable name.
func (n *Normalizer) Field(member *sitter.Node) (model.Field, bool) {
	return n.field(member, 0)
}

func (n *Normalizer) normalize(node *sitter.Node, depth int) model.DataType {
	if node == nil {
		return model.Other{Kind: "missing"}
	}
	if depth >= n.MaxDepth {
		return model.Other{Kind: DepthLimitKind}
	}

	switch node.Type() {
	case "predefined_type":
		if p, ok := keywords[n.text(node)]; ok {
			return p
		}
	case "type_identifier":
		text := n.text(node)
		if p, ok := keywords[text]; ok {
			return p
		}
		return model.TypeReference{Name: text}
	case "nested_type_identifier", "generic_type":
		return n.reference(node)
	case "array_type":
		return model.Array{Elem: n.normalize(firstNamed(node), depth+1)}
	case "tuple_type":
		return n.tuple(node, depth)
	case "optional_type":
		return model.Optional{Inner: n.normalize(firstNamed(node), depth+1)}
	case "union_type":
		return model.Union{Members: n.operands(node, depth)}
	case "intersection_type":
		return model.Intersection{Members: n.operands(node, depth)}
	case "parenthesized_type":
		return n.normalize(firstNamed(node), depth+1)
	case "object_type":
		return model.TypeLiteral{Fields: n.fields(node, depth+1)}
	case "type_query":
		return n.query(node)
	case "import_type":
		if mod, ok := n.importModule(node); ok {
			return model.Import{Module: mod}
		}
	case "call_expression", "member_expression":
		// import("m") and import("m").Foo in type position.
		if mod, ok := n.importCall(node); ok {
			return model.Import{Module: mod}
		}
	case "literal_type":
		if c := firstNamed(node); c != nil {
			return n.literal(c, depth)
		}
	case "string", "number", "true", "false", "null", "undefined", "unary_expression", "template_string":
		return n.literal(node, depth)
	case "template_literal_type":
		return n.template(node, depth)
	}
	return n.other(node)
}

func (n *Normalizer) annotation(ann *sitter.Node, depth int) model.DataType {
	if ann == nil {
		return model.Any
	}
	if ann.Type() != "type_annotation" {
		return n.normalize(ann, depth)
	}
	return n.normalize(firstNamed(ann), depth)
}

func (n *Normalizer) fields(body *sitter.Node, depth int) []model.Field {
	if body == nil {
		return nil
	}
	var fields []model.Field
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "property_signature" {
			continue
		}
		if f, ok := n.field(child, depth); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

func (n *Normalizer) field(member *sitter.Node, depth int) (model.Field, bool) {
	name, ok := n.memberName(member)
	if !ok {
		return model.Field{}, false
	}
	return model.Field{
		Name:     name,
		Type:     n.annotation(typeAnnotation(member), depth),
		Optional: hasToken(member, "?"),
	}, true
}

func (n *Normalizer) memberName(member *sitter.Node) (string, bool) {
	name := member.ChildByFieldName("name")
	if name == nil {
		return "", false
	}
	switch name.Type() {
	case "property_identifier", "private_property_identifier", "identifier", "number":
		return n.text(name), true
	case "string":
		return unquote(n.text(name)), true
	}
	// computed_property_name and anything else cannot be named statically.
	return "", false
}

func (n *Normalizer) tuple(node *sitter.Node, depth int) model.DataType {
	elems := []model.DataType{}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "comment":
			continue
		case "optional_tuple_parameter", "optional_parameter":
			elems = append(elems, model.Optional{Inner: n.annotation(typeAnnotation(child), depth+1)})
		case "tuple_parameter", "required_parameter":
			elems = append(elems, n.annotation(typeAnnotation(child), depth+1))
		default:
			elems = append(elems, n.normalize(child, depth+1))
		}
	}
	return model.Tuple{Elems: elems}
}

// operands flattens the left-nested binary chain the grammar builds for
// "a | b | c" into one ordered list. Parenthesized operands are not part of
// the chain and stay nested.
func (n *Normalizer) operands(node *sitter.Node, depth int) []model.DataType {
	kind := node.Type()
	var members []model.DataType
	stack := []*sitter.Node{node}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.Type() != kind {
			members = append(members, n.normalize(cur, depth+1))
			continue
		}
		for i := int(cur.NamedChildCount()) - 1; i >= 0; i-- {
			child := cur.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			stack = append(stack, child)
		}
	}
	return members
}

func (n *Normalizer) reference(node *sitter.Node) model.DataType {
	name := node
	if node.Type() == "generic_type" {
		if nm := node.ChildByFieldName("name"); nm != nil {
			name = nm
		} else if c := firstNamed(node); c != nil {
			name = c
		}
	}
	if name.Type() == "nested_type_identifier" {
		if right := name.ChildByFieldName("name"); right != nil {
			return model.TypeReference{Name: n.text(right)}
		}
	}
	return model.TypeReference{Name: rightmost(n.text(name))}
}

func (n *Normalizer) query(node *sitter.Node) model.DataType {
	target := firstNamed(node)
	if target == nil {
		return n.other(node)
	}
	if mod, ok := n.importModule(target); ok {
		return model.Import{Module: mod}
	}
	return model.TypeReference{Name: rightmost(n.text(target))}
}

// importModule reports the module string of an import("...") construct.
func (n *Normalizer) importModule(node *sitter.Node) (string, bool) {
	if !strings.HasPrefix(n.text(node), "import") {
		return "", false
	}
	queue := []*sitter.Node{node}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Type() == "string" {
			return unquote(n.text(cur)), true
		}
		for i := 0; i < int(cur.NamedChildCount()); i++ {
			queue = append(queue, cur.NamedChild(i))
		}
	}
	return "", false
}

// importCall reports the module of an import("m") call, possibly followed
// by a chain of member accesses.
func (n *Normalizer) importCall(node *sitter.Node) (string, bool) {
	for node != nil && node.Type() == "member_expression" {
		node = node.ChildByFieldName("object")
	}
	if node == nil || node.Type() != "call_expression" {
		return "", false
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || n.text(fn) != "import" {
		return "", false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if arg := args.NamedChild(i); arg.Type() == "string" {
			return unquote(n.text(arg)), true
		}
	}
	return "", false
}

func (n *Normalizer) literal(node *sitter.Node, depth int) model.DataType {
	text := n.text(node)
	switch node.Type() {
	case "string":
		return model.Literal{Value: model.StringLiteral{Value: unquote(text)}}
	case "number":
		return model.Literal{Value: numberLiteral(text)}
	case "true":
		return model.Literal{Value: model.BooleanLiteral{Value: true}}
	case "false":
		return model.Literal{Value: model.BooleanLiteral{Value: false}}
	case "null":
		return model.Null
	case "undefined":
		return model.Undefined
	case "unary_expression":
		return model.Literal{Value: model.UnaryExpressionLiteral{Text: text}}
	case "template_string", "template_literal_type":
		return n.template(node, depth)
	case "regex":
		return model.Literal{Value: model.RegExpLiteral{Pattern: text}}
	}
	return n.other(node)
}

func (n *Normalizer) template(node *sitter.Node, depth int) model.DataType {
	types := []model.DataType{}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "template_type" {
			continue
		}
		types = append(types, n.normalize(firstNamed(child), depth+1))
	}
	return model.Literal{Value: model.TemplateLiteral{Types: types}}
}

func (n *Normalizer) other(node *sitter.Node) model.DataType {
	return model.Other{Kind: node.Type(), Raw: lang.CollapseWhitespace(n.text(node))}
}

func (n *Normalizer) text(node *sitter.Node) string {
	return lang.NodeText(node, n.Source)
}

// typeAnnotation returns the type_annotation child of a member, looking at
// the "type" field first.
func typeAnnotation(member *sitter.Node) *sitter.Node {
	if t := member.ChildByFieldName("type"); t != nil {
		return t
	}
	for i := 0; i < int(member.NamedChildCount()); i++ {
		child := member.NamedChild(i)
		if child.Type() == "type_annotation" {
			return child
		}
	}
	return nil
}

// hasToken reports whether node has a direct anonymous child spelled tok.
func hasToken(node *sitter.Node, tok string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == tok {
			return true
		}
	}
	return false
}

func firstNamed(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// rightmost keeps the last segment of a dotted name, without type arguments.
func rightmost(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

func unquote(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func numberLiteral(text string) model.LiteralValue {
	clean := strings.ReplaceAll(text, "_", "")
	if strings.HasSuffix(clean, "n") {
		return model.BigIntLiteral{Value: strings.TrimSuffix(clean, "n")}
	}
	if len(clean) > 1 && clean[0] == '0' && strings.ContainsAny(clean[1:2], "xXoObB") {
		if v, err := strconv.ParseInt(clean, 0, 64); err == nil {
			return model.NumberLiteral{Value: float64(v)}
		}
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return model.NumberLiteral{Value: math.NaN()}
	}
	return model.NumberLiteral{Value: v}
}
