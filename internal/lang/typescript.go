package lang

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func init() {
	Languages["typescript"] = &Language{
		Name:       "typescript",
		Extensions: []string{".ts"},
		QueryFile:  "typescript",
		lang:       typescript.GetLanguage(),
	}
	// The tsx grammar is a superset of JavaScript with JSX, so plain .js and
	// .jsx sources go through it as well. Their class fields simply carry no
	// type annotations.
	Languages["tsx"] = &Language{
		Name:       "tsx",
		Extensions: []string{".tsx", ".jsx", ".js"},
		QueryFile:  "typescript",
		lang:       tsx.GetLanguage(),
	}
}
