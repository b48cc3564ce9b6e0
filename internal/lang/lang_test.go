package lang

import "testing"

func TestExtensionTable(t *testing.T) {
	cases := map[string]Language{
		".ts":    TypeScript,
		".tsx":   TSX,
		".js":    JavaScript,
		".jsx":   JavaScript,
		".mjs":   JavaScript,
		".cjs":   JavaScript,
		".py":    Python,
		".pyw":   Python,
		".go":    Go,
		".rs":    Rust,
		".java":  Java,
		".c":     C,
		".h":     C, // .h defaults to C, never C++
		".cpp":   CPP,
		".cc":    CPP,
		".cxx":   CPP,
		".hpp":   CPP,
		".hxx":   CPP,
		".cs":    CSharp,
		".php":   PHP,
		".rb":    Ruby,
		".rake":  Ruby,
		".swift": Swift,
		".kt":    Kotlin,
		".kts":   Kotlin,
	}
	for ext, want := range cases {
		got, ok := LanguageForExtension(ext)
		if !ok {
			t.Errorf("%s: not mapped", ext)
			continue
		}
		if got != want {
			t.Errorf("%s: got %s, want %s", ext, got, want)
		}
	}
}

func TestUnknownExtension(t *testing.T) {
	if _, ok := LanguageForExtension(".pas"); ok {
		t.Error(".pas should be outside the closed table")
	}
	if ForExtension(".xyz") != nil {
		t.Error("expected nil spec for unknown extension")
	}
}

func TestScopeSeparators(t *testing.T) {
	cases := map[Language]string{
		Go:     ".",
		Python: ".",
		Rust:   "::",
		CPP:    "::",
		Ruby:   "::",
		PHP:    "\\",
	}
	for l, want := range cases {
		spec := ForLanguage(l)
		if spec == nil {
			t.Fatalf("no spec for %s", l)
		}
		if spec.ScopeSeparator != want {
			t.Errorf("%s: separator %q, want %q", l, spec.ScopeSeparator, want)
		}
	}
}

func TestIsExported(t *testing.T) {
	if !IsExported("Foo", Go) || IsExported("foo", Go) {
		t.Error("Go export rule is case-based")
	}
	if !IsExported("foo", Python) || IsExported("_foo", Python) {
		t.Error("Python export rule is underscore-based")
	}
	if IsExported("", Go) {
		t.Error("empty name is never exported")
	}
}
