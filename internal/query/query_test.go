package query

import (
	"testing"

	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/parser"
)

func runOn(t *testing.T, l lang.Language, source string) (nodes, edges []Match) {
	t.Helper()
	tree, err := parser.Parse(l, []byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	nodes, edges, err = NewEngine().Run(l, tree, []byte(source))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return nodes, edges
}

func kinds(matches []Match) map[string]int {
	m := map[string]int{}
	for _, match := range matches {
		m[match.Kind]++
	}
	return m
}

func TestGoPatterns(t *testing.T) {
	source := `package main

import "fmt"

type Greeter struct{}

type Speaker interface{ Speak() }

func Hello() string { return world() }

func world() string { fmt.Println("w"); return "w" }
`
	nodes, edges := runOn(t, lang.Go, source)

	nk := kinds(nodes)
	if nk["function"] != 2 {
		t.Errorf("functions = %d, want 2", nk["function"])
	}
	if nk["struct"] != 1 || nk["interface"] != 1 {
		t.Errorf("struct=%d interface=%d, want 1 each", nk["struct"], nk["interface"])
	}

	ek := kinds(edges)
	if ek["call"] < 2 {
		t.Errorf("calls = %d, want >= 2 (world, fmt.Println)", ek["call"])
	}
	if ek["import"] != 1 {
		t.Errorf("imports = %d, want 1", ek["import"])
	}

	var foundWorld bool
	for _, e := range edges {
		if e.Kind == "call" {
			if c := e.Get("callee"); c != nil && c.Text == "world" {
				foundWorld = true
			}
		}
	}
	if !foundWorld {
		t.Error("expected a call capture for world()")
	}
}

func TestPythonPatterns(t *testing.T) {
	source := `import os

class Base:
    pass

class Child(Base):
    def __init__(self):
        self.x = 1

    def run(self):
        return helper()

def helper():
    return os.path.join("a", "b")
`
	nodes, edges := runOn(t, lang.Python, source)

	nk := kinds(nodes)
	if nk["class"] != 2 {
		t.Errorf("classes = %d, want 2", nk["class"])
	}
	if nk["function"] != 3 {
		t.Errorf("functions = %d, want 3 (__init__, run, helper)", nk["function"])
	}

	ek := kinds(edges)
	if ek["import"] != 1 {
		t.Errorf("imports = %d, want 1", ek["import"])
	}
	if ek["extends"] != 1 {
		t.Errorf("extends = %d, want 1", ek["extends"])
	}

	var base string
	for _, e := range edges {
		if e.Kind == "extends" {
			if b := e.Get("base"); b != nil {
				base = b.Text
			}
		}
	}
	if base != "Base" {
		t.Errorf("extends base = %q, want Base", base)
	}
}

func TestTypeScriptPatterns(t *testing.T) {
	source := `import { helper } from "./util";

interface Validator {
  validate(token: string): boolean;
}

class AuthService implements Validator {
  validate(token: string): boolean {
    return helper(token);
  }
}

const check = (t: string) => helper(t);
`
	nodes, edges := runOn(t, lang.TypeScript, source)

	nk := kinds(nodes)
	if nk["class"] != 1 || nk["interface"] != 1 {
		t.Errorf("class=%d interface=%d, want 1 each", nk["class"], nk["interface"])
	}
	if nk["method"] < 1 {
		t.Errorf("methods = %d, want >= 1", nk["method"])
	}
	if nk["function"] != 1 {
		t.Errorf("arrow-bound functions = %d, want 1", nk["function"])
	}

	ek := kinds(edges)
	if ek["import"] != 1 {
		t.Errorf("imports = %d, want 1", ek["import"])
	}
	if ek["implements"] != 1 {
		t.Errorf("implements = %d, want 1", ek["implements"])
	}

	var path string
	for _, e := range edges {
		if e.Kind == "import" {
			if p := e.Get("path"); p != nil {
				path = p.Text
			}
		}
	}
	if path != `"./util"` && path != "./util" {
		t.Errorf("import path = %q", path)
	}
}

func TestUnknownLanguageFails(t *testing.T) {
	e := NewEngine()
	if _, err := e.compiled(lang.Language("cobol")); err == nil {
		t.Error("expected error for unknown language")
	}
}
