// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// extracted structures.
package toon

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/typelens/internal/model"
	"github.com/phobologic/typelens/internal/render"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Member roles in the members table.
const (
	RoleField        = "field"
	RoleUnion        = "union"
	RoleIntersection = "intersection"
)

// Encode converts statements into TOON. Source paths are written relative
// to root when possible. Union and intersection members are named by their
// position.
func Encode(root string, stmts []model.Statement) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(filepath.Base(root))))

	var structRows, memberRows [][]any
	for _, st := range stmts {
		source := relPath(root, st.Key.SourcePath)
		structRows = append(structRows, []any{st.Key.Name, st.Key.Kind.String(), source})

		switch c := st.Content.(type) {
		case model.Fields:
			for _, f := range c {
				memberRows = append(memberRows, []any{
					st.Key.Name, source, RoleField, f.Name, f.Optional, render.Type(f.Type),
				})
			}
		case model.UnionMembers:
			memberRows = append(memberRows, positional(st.Key.Name, source, RoleUnion, c)...)
		case model.IntersectionMembers:
			memberRows = append(memberRows, positional(st.Key.Name, source, RoleIntersection, c)...)
		}
	}

	parts = append(parts, formatTabular("structures", []string{"name", "kind", "source"}, structRows))
	parts = append(parts, formatTabular("members",
		[]string{"structure", "source", "role", "name", "optional", "type"}, memberRows))

	return strings.Join(parts, "\n")
}

func positional(structure, source, role string, members []model.DataType) [][]any {
	rows := make([][]any, len(members))
	for i, m := range members {
		rows[i] = []any{structure, source, role, strconv.Itoa(i), false, render.Type(m)}
	}
	return rows
}

func relPath(root, path string) string {
	if root == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// formatTabular writes one row per line. String cells are quoted as needed;
// bool cells are TOON booleans and stay bare.
func formatTabular(name string, columns []string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			switch v := cell.(type) {
			case bool:
				encoded[i] = strconv.FormatBool(v)
			case string:
				encoded[i] = encodeValue(v)
			default:
				encoded[i] = encodeValue(fmt.Sprint(v))
			}
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
