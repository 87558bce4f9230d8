package formula

import (
	"os"
	"path/filepath"
	"testing"
)

// To each modal expression, associate its expected canonical form. An empty
// string means a parse error is expected.
var exprToModal = map[string]string{
	"P(p)":                  "P(p)",
	"  P( p )  ":            "P(p)",
	"¬P(p)":                 "¬(P(p))",
	"¬¬P(p)":                "¬(¬(P(p)))",
	"(P(p))":                "P(p)",
	"P(p) ∧ P(q)":           "(P(p) ∧ P(q))",
	"P(p) ∨ P(q)":           "(P(p) ∨ P(q))",
	"P(p) → P(q)":           "(P(p) → P(q))",
	"P(p) ↔ P(q)":           "(P(p) ↔ P(q))",
	"P(p) ⊕ P(q)":           "(P(p) ⊕ P(q))",
	"P(p) ⊙ P(q)":           "(P(p) ⊙ P(q))",
	"P(p ∧ q)":              "P((p ∧ q))",
	"P(¬p ∨ q)":             "P((¬(p) ∨ q))",
	"P((p → q) ∧ r)":        "P(((p → q) ∧ r))",
	"P(p → q → r)":          "P((p → (q → r)))",
	"P(p ∧ q ∨ r)":          "P(((p ∧ q) ∨ r))",
	"P(p ∨ q ∧ r)":          "P((p ∨ (q ∧ r)))",
	"¬ P(foo_1) ⊕ P(Bar)":   "(¬(P(foo_1)) ⊕ P(Bar))",
	"P(p) → P(q) → P(r)":    "(P(p) → (P(q) → P(r)))",
	"P(p) ⊕ P(q) ⊕ P(r)":    "(P(p) ⊕ (P(q) ⊕ P(r)))",
	"P(p) ∧ P(q) ∨ P(r)":    "((P(p) ∧ P(q)) ∨ P(r))",
	"P(p) ∨ P(q) ∧ P(r)":    "(P(p) ∨ (P(q) ∧ P(r)))",
	"P(p) ⊙ P(q) ⊕ P(r)":    "(P(p) ⊙ (P(q) ⊕ P(r)))",
	"P(p) → P(q) ∨ P(r)":    "(P(p) → (P(q) ∨ P(r)))",
	"¬(P(p) ∧ P(q)) ⊕ P(r)": "(¬((P(p) ∧ P(q))) ⊕ P(r))",
	"P(p ∨ ¬p)":             "P((p ∨ ¬(p)))",

	"":            "",
	"P(p":         "",
	"P p)":        "",
	"P(p) P(q)":   "",
	"P(p) ∧":      "",
	"∧ P(p)":      "",
	"(P(p)":       "",
	"p":           "",
	"P()":         "",
	"P(p ∧)":      "",
	"P((p)":       "",
	"P(p ⊕ q)":    "", // strong connectives are modal-level only
	"P(p) @ P(q)": "",
}

func TestParseModal(t *testing.T) {
	for expr, want := range exprToModal {
		f, err := ParseModal(expr)
		if want == "" {
			if err == nil {
				t.Errorf("expected error parsing %q, got %q", expr, f.String())
			}
			continue
		}
		if err != nil {
			t.Errorf("could not parse %q: %v", expr, err)
		} else if f.String() != want {
			t.Errorf("for %q, expected %q, got %q", expr, want, f.String())
		}
	}
}

var exprToCPL = map[string]string{
	"p":             "p",
	"¬p":            "¬(p)",
	"p ∧ q":         "(p ∧ q)",
	"p → q → r":     "(p → (q → r))",
	"p ↔ q ∨ r":     "(p ↔ (q ∨ r))",
	"(p ∨ q) ∧ ¬r":  "((p ∨ q) ∧ ¬(r))",
	"_x1 ∨ Y_2":     "(_x1 ∨ Y_2)",
	"¬(p ∧ q)":      "¬((p ∧ q))",
	"p ∧ q ∧ r":     "(p ∧ (q ∧ r))",
	"p ↔ q → r ∨ s": "(p ↔ (q → (r ∨ s)))",

	"":        "",
	"1p":      "",
	"p ∧":     "",
	"(p":      "",
	"p)":      "",
	"p q":     "",
	"p ⊕ q":   "",
	"¬":       "",
	"p ∧ ∧ q": "",
}

func TestParseCPL(t *testing.T) {
	for expr, want := range exprToCPL {
		f, err := ParseCPL(expr)
		if want == "" {
			if err == nil {
				t.Errorf("expected error parsing %q, got %q", expr, f.String())
			}
			continue
		}
		if err != nil {
			t.Errorf("could not parse %q: %v", expr, err)
		} else if f.String() != want {
			t.Errorf("for %q, expected %q, got %q", expr, want, f.String())
		}
	}
}

// The canonical form is fully parenthesized, so parsing it back must yield
// the same tree.
func TestRoundTrip(t *testing.T) {
	for expr, want := range exprToModal {
		if want == "" {
			continue
		}
		f, err := ParseModal(expr)
		if err != nil {
			t.Fatalf("could not parse %q: %v", expr, err)
		}
		back, err := ParseModal(f.String())
		if err != nil {
			t.Errorf("could not re-parse %q: %v", f.String(), err)
		} else if back.String() != f.String() {
			t.Errorf("round trip of %q: got %q, want %q", expr, back.String(), f.String())
		}
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.fpl")
	content := "P(p)\n\n  \nP(p) ⊕ P(q)\n¬P(p ∧ q)\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	formulas, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := []string{"P(p)", "(P(p) ⊕ P(q))", "¬(P((p ∧ q)))"}
	if len(formulas) != len(want) {
		t.Fatalf("got %d formulas, want %d", len(formulas), len(want))
	}
	for i := range want {
		if formulas[i].String() != want[i] {
			t.Errorf("formula %d = %q, want %q", i, formulas[i].String(), want[i])
		}
	}
}

func TestParseFileErrors(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.fpl")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.fpl")
	if err := os.WriteFile(path, []byte("P(p)\nP(q\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFile(path); err == nil {
		t.Error("expected error for malformed line")
	}
}
