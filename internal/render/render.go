// Package render turns model statements and types into plain text.
// Every function is total and deterministic.
package render

import (
	"strconv"
	"strings"

	"github.com/phobologic/typelens/internal/model"
)

// NoContent is printed for aliases without field or member detail.
const NoContent = "No fields or alias detail available."

// Statements renders each statement as a block, separating blocks with a
// blank line.
func Statements(stmts []model.Statement) string {
	blocks := make([]string, len(stmts))
	for i, st := range stmts {
		blocks[i] = Statement(st)
	}
	return strings.Join(blocks, "\n\n")
}

// Statement renders the name, the structure kind and the content section.
func Statement(st model.Statement) string {
	var b strings.Builder
	b.WriteString("Name: ")
	b.WriteString(st.Key.Name)
	b.WriteString("\nStructure: ")
	b.WriteString(st.Key.Kind.String())
	b.WriteByte('\n')
	b.WriteString(Content(st.Content))
	return b.String()
}

// Content renders the section below a structure header.
func Content(c model.Content) string {
	switch c := c.(type) {
	case model.Fields:
		lines := make([]string, 0, len(c)+1)
		lines = append(lines, "Fields:")
		for _, f := range c {
			lines = append(lines, Field(f))
		}
		return strings.Join(lines, "\n")
	case model.UnionMembers:
		return memberSection("Union Type:", c)
	case model.IntersectionMembers:
		return memberSection("Intersection Type:", c)
	}
	return NoContent
}

func memberSection(header string, members []model.DataType) string {
	lines := make([]string, 0, len(members)+1)
	lines = append(lines, header)
	for _, m := range members {
		lines = append(lines, Type(m))
	}
	return strings.Join(lines, "\n")
}

// Field renders "name - Type", with " - Optional" after the name when the
// member is optional.
func Field(f model.Field) string {
	if f.Optional {
		return f.Name + " - Optional - " + Type(f.Type)
	}
	return f.Name + " - " + Type(f.Type)
}

// Type renders a type description.
func Type(t model.DataType) string {
	switch t := t.(type) {
	case model.Array:
		return "Array of " + Type(t.Elem)
	case model.Tuple:
		return "Tuple of " + joinTypes(t.Elems)
	case model.Optional:
		return "Optional " + Type(t.Inner)
	case model.Union:
		return "Union of " + joinTypes(t.Members)
	case model.Intersection:
		return "Intersection of " + joinTypes(t.Members)
	case model.TypeReference:
		return t.Name
	case model.Import:
		return "Import with `" + t.Module + "`"
	case model.TypeLiteral:
		fields := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = Field(f)
		}
		return "Object Literal {" + strings.Join(fields, ", ") + "}"
	case model.Literal:
		return "Literal " + Literal(t.Value)
	case model.Primitive:
		return t.String()
	case model.Other:
		if t.Raw == "" {
			return "Other"
		}
		return "Other type: `" + t.Raw + "`"
	}
	return "Other"
}

// Literal renders a literal value prefixed with its kind.
func Literal(v model.LiteralValue) string {
	switch v := v.(type) {
	case model.StringLiteral:
		return "String " + strconv.Quote(v.Value)
	case model.BooleanLiteral:
		return "Boolean " + strconv.FormatBool(v.Value)
	case model.NumberLiteral:
		return "Number " + strconv.FormatFloat(v.Value, 'f', -1, 64)
	case model.BigIntLiteral:
		return "BigInt " + v.Value
	case model.RegExpLiteral:
		return "RegExp " + v.Pattern
	case model.TemplateLiteral:
		if len(v.Types) == 0 {
			return "Template"
		}
		return "Template " + joinTypes(v.Types)
	case model.UnaryExpressionLiteral:
		return "Unary " + v.Text
	case model.NullLiteral:
		return "Null"
	}
	return "Unknown"
}

func joinTypes(types []model.DataType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = Type(t)
	}
	return strings.Join(parts, ", ")
}
