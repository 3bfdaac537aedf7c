// Package model defines the structure and type description model for typelens.
package model

// StructureKind indicates which kind of declaration produced a structure.
type StructureKind int

const (
	Class StructureKind = iota
	Interface
	TypeAlias
)

func (k StructureKind) String() string {
	switch k {
	case Class:
		return "Class"
	case Interface:
		return "Interface"
	case TypeAlias:
		return "Type Alias"
	}
	return "Unknown"
}

// StructureKey identifies one extracted declaration. Two declarations with the
// same name and kind in different files are distinct keys.
type StructureKey struct {
	Name       string
	Kind       StructureKind
	SourcePath string
}

// Field is one named member of a class, interface or object literal type.
type Field struct {
	Name     string
	Type     DataType
	Optional bool
}

// Statement is the normalized record produced from one declaration.
type Statement struct {
	Key     StructureKey
	Content Content
}

// Content is the extracted body of a structure: Fields, UnionMembers,
// IntersectionMembers or NoContent.
type Content interface {
	isContent()
}

// Fields is the member list of a class, interface or object literal alias.
type Fields []Field

// UnionMembers holds the members of a type alias whose right-hand side is a union.
type UnionMembers []DataType

// IntersectionMembers holds the members of a type alias whose right-hand side
// is an intersection.
type IntersectionMembers []DataType

// NoContent marks an alias whose right-hand side is neither an object literal,
// a union nor an intersection.
type NoContent struct{}

func (Fields) isContent()              {}
func (UnionMembers) isContent()        {}
func (IntersectionMembers) isContent() {}
func (NoContent) isContent()           {}
