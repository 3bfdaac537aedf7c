package model

// DataType describes one TypeScript type expression. The set of
// implementations is closed; exactly one variant describes a value.
type DataType interface {
	isDataType()
}

type (
	Array struct {
		Elem DataType
	}

	Tuple struct {
		Elems []DataType
	}

	// Optional wraps a tuple element marked with a trailing "?".
	Optional struct {
		Inner DataType
	}

	// Union members keep source order and are neither de-duplicated nor
	// flattened across parentheses.
	Union struct {
		Members []DataType
	}

	Intersection struct {
		Members []DataType
	}

	// TypeReference keeps only the rightmost segment of a qualified name.
	TypeReference struct {
		Name string
	}

	// Import is a dynamic import type such as import("./mod").
	Import struct {
		Module string
	}

	// TypeLiteral is an inline object type.
	TypeLiteral struct {
		Fields []Field
	}

	Literal struct {
		Value LiteralValue
	}

	// Other is the fallback for constructs the model does not enumerate
	// (function, conditional, mapped types and so on). Kind is the syntax node
	// kind and Raw its collapsed source text, kept for diagnostics only.
	Other struct {
		Kind string
		Raw  string
	}
)

// Primitive is one of the predefined keyword types.
type Primitive int

const (
	Any Primitive = iota
	Unknown
	Number
	String
	Object
	BigInt
	Symbol
	Void
	Undefined
	Null
	Never
	Boolean
)

var primitiveNames = [...]string{
	Any:       "Any",
	Unknown:   "Unknown",
	Number:    "Number",
	String:    "String",
	Object:    "Object",
	BigInt:    "BigInt",
	Symbol:    "Symbol",
	Void:      "Void",
	Undefined: "Undefined",
	Null:      "Null",
	Never:     "Never",
	Boolean:   "Boolean",
}

func (p Primitive) String() string {
	if p < 0 || int(p) >= len(primitiveNames) {
		return "Unknown"
	}
	return primitiveNames[p]
}

func (Array) isDataType()         {}
func (Tuple) isDataType()         {}
func (Optional) isDataType()      {}
func (Union) isDataType()         {}
func (Intersection) isDataType()  {}
func (TypeReference) isDataType() {}
func (Import) isDataType()        {}
func (TypeLiteral) isDataType()   {}
func (Literal) isDataType()       {}
func (Other) isDataType()         {}
func (Primitive) isDataType()     {}

// LiteralValue is the value carried by a literal type.
type LiteralValue interface {
	isLiteral()
}

type (
	StringLiteral struct {
		Value string
	}

	BooleanLiteral struct {
		Value bool
	}

	NumberLiteral struct {
		Value float64
	}

	// BigIntLiteral holds the digits without the trailing "n".
	BigIntLiteral struct {
		Value string
	}

	RegExpLiteral struct {
		Pattern string
	}

	// TemplateLiteral holds the normalized types of the ${...} segments.
	TemplateLiteral struct {
		Types []DataType
	}

	// UnaryExpressionLiteral is a prefixed literal such as -1.
	UnaryExpressionLiteral struct {
		Text string
	}

	NullLiteral struct{}
)

func (StringLiteral) isLiteral()          {}
func (BooleanLiteral) isLiteral()         {}
func (NumberLiteral) isLiteral()          {}
func (BigIntLiteral) isLiteral()          {}
func (RegExpLiteral) isLiteral()          {}
func (TemplateLiteral) isLiteral()        {}
func (UnaryExpressionLiteral) isLiteral() {}
func (NullLiteral) isLiteral()            {}
