package normalize

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/typelens/internal/lang"
	"github.com/phobologic/typelens/internal/model"
)

// normalizeAlias parses "type T = <expr>;" and normalizes the right-hand side.
func normalizeAlias(t *testing.T, expr string, maxDepth int) model.DataType {
	t.Helper()
	source := []byte("type T = " + expr + ";\n")
	p := lang.Languages["typescript"].NewParser()
	tree, err := p.ParseCtx(context.Background(), nil, source)
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	root := tree.RootNode()
	require.False(t, root.HasError(), "source has syntax errors: %s", source)
	decl := root.NamedChild(0)
	require.Equal(t, "type_alias_declaration", decl.Type())
	value := decl.ChildByFieldName("value")
	require.NotNil(t, value)

	return New(source, maxDepth).Normalize(value)
}

func TestPrimitives(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want model.Primitive
	}{
		{"any", model.Any},
		{"unknown", model.Unknown},
		{"number", model.Number},
		{"string", model.String},
		{"object", model.Object},
		{"bigint", model.BigInt},
		{"symbol", model.Symbol},
		{"void", model.Void},
		{"undefined", model.Undefined},
		{"null", model.Null},
		{"never", model.Never},
		{"boolean", model.Boolean},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalizeAlias(t, tt.expr, 0))
		})
	}
}

func TestArray(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.Array{Elem: model.String}, normalizeAlias(t, "string[]", 0))
	assert.Equal(t,
		model.Array{Elem: model.Array{Elem: model.String}},
		normalizeAlias(t, "string[][]", 0))
	assert.Equal(t,
		model.Array{Elem: model.Union{Members: []model.DataType{model.String, model.Number}}},
		normalizeAlias(t, "(string | number)[]", 0))
}

func TestTuple(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		model.Tuple{Elems: []model.DataType{model.String, model.Boolean}},
		normalizeAlias(t, "[string, boolean]", 0))
	assert.Equal(t,
		model.Tuple{Elems: []model.DataType{model.Boolean, model.Optional{Inner: model.String}}},
		normalizeAlias(t, "[boolean, string?]", 0))
	assert.Equal(t,
		model.Array{Elem: model.Tuple{Elems: []model.DataType{model.Optional{Inner: model.String}}}},
		normalizeAlias(t, "[string?][]", 0))
}

func TestLabelledTuple(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		model.Tuple{Elems: []model.DataType{model.Number, model.Optional{Inner: model.Number}}},
		normalizeAlias(t, "[x: number, y?: number]", 0))

	assert.Equal(t,
		model.Tuple{Elems: []model.DataType{
			model.TypeReference{Name: "User"},
			model.Optional{Inner: model.Array{Elem: model.String}},
		}},
		normalizeAlias(t, "[owner: User, tags?: string[]]", 0))
}

func TestUnionKeepsOrderAndFlattensChain(t *testing.T) {
	t.Parallel()

	got := normalizeAlias(t, "string | null | number | string", 0)
	assert.Equal(t, model.Union{Members: []model.DataType{
		model.String, model.Null, model.Number, model.String,
	}}, got)
}

func TestUnionParenthesizedStaysNested(t *testing.T) {
	t.Parallel()

	got := normalizeAlias(t, "(string | number) | boolean", 0)
	assert.Equal(t, model.Union{Members: []model.DataType{
		model.Union{Members: []model.DataType{model.String, model.Number}},
		model.Boolean,
	}}, got)
}

func TestIntersection(t *testing.T) {
	t.Parallel()

	got := normalizeAlias(t, "{data1: string} & {data2: string} & Base", 0)
	assert.Equal(t, model.Intersection{Members: []model.DataType{
		model.TypeLiteral{Fields: []model.Field{{Name: "data1", Type: model.String}}},
		model.TypeLiteral{Fields: []model.Field{{Name: "data2", Type: model.String}}},
		model.TypeReference{Name: "Base"},
	}}, got)
}

func TestTypeLiteral(t *testing.T) {
	t.Parallel()

	got := normalizeAlias(t, "{a: string, b?: number}", 0)
	assert.Equal(t, model.TypeLiteral{Fields: []model.Field{
		{Name: "a", Type: model.String, Optional: false},
		{Name: "b", Type: model.Number, Optional: true},
	}}, got)
}

func TestTypeLiteralMembers(t *testing.T) {
	t.Parallel()

	got := normalizeAlias(t, `{ untyped; "quoted": boolean; method(): void; [k: string]: any }`, 0)
	assert.Equal(t, model.TypeLiteral{Fields: []model.Field{
		{Name: "untyped", Type: model.Any},
		{Name: "quoted", Type: model.Boolean},
	}}, got)
}

func TestTypeReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want string
	}{
		{"Foo", "Foo"},
		{"A.B.C", "C"},
		{"Map<string, string>", "Map"},
		{"ns.Box<number>", "Box"},
		{"typeof SomeType", "SomeType"},
		{"typeof config.server", "server"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, model.TypeReference{Name: tt.want}, normalizeAlias(t, tt.expr, 0))
		})
	}
}

func TestTypeofImport(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.Import{Module: "./config"}, normalizeAlias(t, `typeof import("./config")`, 0))
}

func TestImportType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want model.DataType
	}{
		{`import("m")`, model.Import{Module: "m"}},
		{`import("./m").Foo`, model.Import{Module: "./m"}},
		{`import('./deep/m').A.B`, model.Import{Module: "./deep/m"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalizeAlias(t, tt.expr, 0))
		})
	}
}

func TestLiterals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want model.DataType
	}{
		{`"ok"`, model.Literal{Value: model.StringLiteral{Value: "ok"}}},
		{`'single'`, model.Literal{Value: model.StringLiteral{Value: "single"}}},
		{"42", model.Literal{Value: model.NumberLiteral{Value: 42}}},
		{"1.5", model.Literal{Value: model.NumberLiteral{Value: 1.5}}},
		{"0xff", model.Literal{Value: model.NumberLiteral{Value: 255}}},
		{"1_000", model.Literal{Value: model.NumberLiteral{Value: 1000}}},
		{"10n", model.Literal{Value: model.BigIntLiteral{Value: "10"}}},
		{"true", model.Literal{Value: model.BooleanLiteral{Value: true}}},
		{"false", model.Literal{Value: model.BooleanLiteral{Value: false}}},
		{"-1", model.Literal{Value: model.UnaryExpressionLiteral{Text: "-1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalizeAlias(t, tt.expr, 0))
		})
	}
}

func TestOtherFallback(t *testing.T) {
	t.Parallel()

	got := normalizeAlias(t, "(a: string,\n  b: number) => void", 0)
	other, ok := got.(model.Other)
	require.True(t, ok, "got %#v", got)
	assert.Equal(t, "function_type", other.Kind)
	assert.Equal(t, "(a: string, b: number) => void", other.Raw)

	_, ok = normalizeAlias(t, "keyof Foo", 0).(model.Other)
	assert.True(t, ok)
	_, ok = normalizeAlias(t, "T extends string ? 1 : 2", 0).(model.Other)
	assert.True(t, ok)
}

func TestDepthLimit(t *testing.T) {
	t.Parallel()

	got := normalizeAlias(t, "string[][][][]", 3)
	assert.Equal(t,
		model.Array{Elem: model.Array{Elem: model.Array{Elem: model.Other{Kind: DepthLimitKind}}}},
		got)
}

func TestDeepNestingDefaultCeiling(t *testing.T) {
	t.Parallel()

	got := normalizeAlias(t, "string"+strings.Repeat("[]", 300), 0)

	depth := 0
	for {
		arr, ok := got.(model.Array)
		if !ok {
			break
		}
		depth++
		got = arr.Elem
	}
	assert.Equal(t, DefaultMaxDepth, depth)
	assert.Equal(t, model.Other{Kind: DepthLimitKind}, got)
}

func TestNumberLiteral(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.NumberLiteral{Value: 8}, numberLiteral("0o10"))
	assert.Equal(t, model.NumberLiteral{Value: 5}, numberLiteral("0b101"))
	assert.Equal(t, model.NumberLiteral{Value: 0.5}, numberLiteral(".5"))
	assert.Equal(t, model.BigIntLiteral{Value: "0x1f"}, numberLiteral("0x1fn"))
}

func TestRightmost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "C", rightmost("A.B.C"))
	assert.Equal(t, "Box", rightmost("ns.Box<T>"))
	assert.Equal(t, "plain", rightmost("plain"))
}
