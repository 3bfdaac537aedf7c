package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/typelens/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.ts", "src/main.ts"},
		{"backticks", "Import with `./m`", "Import with `./m`"},
		{"type text", "Array of Optional String", "Array of Optional String"},
		{"type text with comma", "Tuple of String, Number", `"Tuple of String, Number"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	stmts := []model.Statement{
		{
			Key: model.StructureKey{Name: "User", Kind: model.Interface, SourcePath: "/repo/src/user.ts"},
			Content: model.Fields{
				{Name: "id", Type: model.Number},
				{Name: "email", Type: model.String, Optional: true},
			},
		},
		{
			Key: model.StructureKey{Name: "Status", Kind: model.TypeAlias, SourcePath: "/repo/src/user.ts"},
			Content: model.UnionMembers{
				model.Literal{Value: model.StringLiteral{Value: "ok"}},
				model.TypeReference{Name: "Failure"},
			},
		},
		{
			Key:     model.StructureKey{Name: "Id", Kind: model.TypeAlias, SourcePath: "/repo/id.ts"},
			Content: model.NoContent{},
		},
	}

	got := Encode("/repo", stmts)
	want := []string{
		"root: repo",
		"structures[3]{name,kind,source}:",
		"  User,Interface,src/user.ts",
		"  Status,Type Alias,src/user.ts",
		"  Id,Type Alias,id.ts",
		"members[4]{structure,source,role,name,optional,type}:",
		"  User,src/user.ts,field,id,false,Number",
		"  User,src/user.ts,field,email,true,String",
		"  Status,src/user.ts,union,0,false,\"Literal String \\\"ok\\\"\"",
		"  Status,src/user.ts,union,1,false,Failure",
	}

	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeIntersectionAndLiteral(t *testing.T) {
	t.Parallel()

	stmts := []model.Statement{{
		Key: model.StructureKey{Name: "Both", Kind: model.TypeAlias, SourcePath: "both.ts"},
		Content: model.IntersectionMembers{
			model.TypeReference{Name: "A"},
			model.TypeLiteral{Fields: []model.Field{{Name: "id", Type: model.String}}},
		},
	}}

	got := Encode("", stmts)
	if !strings.Contains(got, "  Both,both.ts,intersection,0,false,A") {
		t.Errorf("missing first member row:\n%s", got)
	}
	if !strings.Contains(got, `  Both,both.ts,intersection,1,false,"Object Literal {id - String}"`) {
		t.Errorf("missing quoted object literal row:\n%s", got)
	}
}

func TestEncodeOptionalIsBareBoolean(t *testing.T) {
	t.Parallel()

	stmts := []model.Statement{{
		Key: model.StructureKey{Name: "Flags", Kind: model.Interface, SourcePath: "flags.ts"},
		Content: model.Fields{
			{Name: "false", Type: model.Boolean, Optional: true},
		},
	}}

	got := Encode("", stmts)
	if !strings.Contains(got, `  Flags,flags.ts,field,"false",true,Boolean`) {
		t.Errorf("field name should be quoted and optional bare:\n%s", got)
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode("/work/empty", nil)
	if !strings.HasPrefix(got, "root: empty\n") {
		t.Errorf("expected root line, got:\n%s", got)
	}
	if !strings.Contains(got, "structures[0]{name,kind,source}:") {
		t.Errorf("expected empty structures section, got:\n%s", got)
	}
	if !strings.Contains(got, "members[0]{structure,source,role,name,optional,type}:") {
		t.Errorf("expected empty members section, got:\n%s", got)
	}
}

func TestRelPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		root, path, want string
	}{
		{"/repo", "/repo/a/b.ts", "a/b.ts"},
		{"/repo", "/elsewhere/c.ts", "/elsewhere/c.ts"},
		{"", "/repo/a.ts", "/repo/a.ts"},
		{"/repo", "rel/d.ts", "rel/d.ts"},
	}
	for _, tt := range tests {
		if got := relPath(tt.root, tt.path); got != tt.want {
			t.Errorf("relPath(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}
