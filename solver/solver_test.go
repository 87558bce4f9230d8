package solver

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/fplsol/fplsol/formula"
)

// newTestSolver parses the given lines and builds a solver with exhaustive
// pricing, rooted in a temporary directory so report files land there.
func newTestSolver(t *testing.T, lines ...string) *Solver {
	t.Helper()
	var formulas []*formula.Modal
	for _, line := range lines {
		f, err := formula.ParseModal(line)
		if err != nil {
			t.Fatalf("could not parse %q: %v", line, err)
		}
		formulas = append(formulas, f)
	}
	path := filepath.Join(t.TempDir(), "case.fpl")
	s := New(formulas, path, false)
	s.SetPBOptions(false, "", "")
	return s
}

// checkWitness verifies probabilistic coherence and Łukasiewicz soundness
// of the reported witness: each atom value equals the expectation of its
// body under the distribution, the distribution sums to 1, and every input
// formula evaluates to 1.
func checkWitness(t *testing.T, s *Solver) {
	t.Helper()
	dist, valuations := s.Distribution()
	names := s.Vars().Names()
	values := s.ModalValues()

	total := 0.0
	for _, p := range dist {
		total += p
	}
	if math.Abs(total-1) > 1e-6 {
		t.Errorf("distribution sums to %g, want 1", total)
	}

	for _, psi := range formula.Atoms(s.formulas...) {
		expect := 0.0
		for k, p := range dist {
			model := make(map[string]bool, len(names))
			for j, name := range names {
				model[name] = valuations[k][j]
			}
			if psi.Eval(model) {
				expect += p
			}
		}
		id := "P(" + psi.String() + ")"
		if got, ok := values[id]; !ok {
			t.Errorf("witness lacks %s", id)
		} else if math.Abs(got-expect) > 1e-6 {
			t.Errorf("%s = %g, but distribution gives %g", id, got, expect)
		}
	}

	for _, f := range s.formulas {
		if v := f.Eval(values); math.Abs(v-1) > 1e-6 {
			t.Errorf("%s evaluates to %g under the witness, want 1", f, v)
		}
	}
}

func TestSolveSingleAtom(t *testing.T) {
	s := newTestSolver(t, "P(p)")
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Fatal("P(p) should be SAT")
	}
	if v := s.ModalValues()["P(p)"]; math.Abs(v-1) > 1e-6 {
		t.Errorf("x(P(p)) = %g, want 1", v)
	}
	dist, valuations := s.Distribution()
	mass := 0.0
	for k := range dist {
		if valuations[k][0] {
			mass += dist[k]
		}
	}
	if math.Abs(mass-1) > 1e-6 {
		t.Errorf("mass on p=1 is %g, want 1", mass)
	}
	checkWitness(t, s)
}

func TestSolveNegatedAtom(t *testing.T) {
	s := newTestSolver(t, "¬P(p)")
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Fatal("¬P(p) should be SAT")
	}
	if v := s.ModalValues()["P(p)"]; math.Abs(v) > 1e-6 {
		t.Errorf("x(P(p)) = %g, want 0", v)
	}
	checkWitness(t, s)
}

func TestSolveStrongDisjunction(t *testing.T) {
	s := newTestSolver(t, "P(p) ⊕ P(q)", "¬P(p ∧ q)")
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Fatal("expected SAT")
	}
	if v := s.ModalValues()["P((p ∧ q))"]; math.Abs(v) > 1e-6 {
		t.Errorf("x(P((p ∧ q))) = %g, want 0", v)
	}
	checkWitness(t, s)
}

func TestSolveContradiction(t *testing.T) {
	s := newTestSolver(t, "P(p) ⊙ ¬P(p)")
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if sat {
		t.Error("P(p) ⊙ ¬P(p) should be UNSAT")
	}
}

func TestSolveModusTollens(t *testing.T) {
	s := newTestSolver(t, "P(p) → P(q)", "P(p)", "¬P(q)")
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if sat {
		t.Error("P(p) → P(q), P(p), ¬P(q) should be UNSAT")
	}
}

func TestSolveTautologyAtom(t *testing.T) {
	s := newTestSolver(t, "P(p ∨ ¬p)")
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Fatal("P(p ∨ ¬p) should be SAT")
	}
	if v := s.ModalValues()["P((p ∨ ¬(p)))"]; math.Abs(v-1) > 1e-6 {
		t.Errorf("x = %g, want 1", v)
	}
	checkWitness(t, s)
}

func TestSolveImplicationTautology(t *testing.T) {
	s := newTestSolver(t, "P(p → p)")
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Fatal("P(p → p) should be SAT")
	}
	if v := s.ModalValues()["P((p → p))"]; math.Abs(v-1) > 1e-6 {
		t.Errorf("x = %g, want 1", v)
	}
	checkWitness(t, s)
}

func TestSolveUnsatisfiableBody(t *testing.T) {
	s := newTestSolver(t, "P(p ∧ ¬p)")
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	// The atom of an unsatisfiable body can only take probability 0, and
	// asserting the formula forces it to 1.
	if sat {
		t.Error("P(p ∧ ¬p) should be UNSAT")
	}
}

func TestSolveEmptyInput(t *testing.T) {
	s := newTestSolver(t)
	sat, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Error("empty input should be trivially SAT")
	}
	dist, _ := s.Distribution()
	if len(dist) != 1 || math.Abs(dist[0]-1) > 1e-6 {
		t.Errorf("distribution = %v, want [1]", dist)
	}
}

func TestSolveIdempotent(t *testing.T) {
	lines := []string{"P(p) ⊕ P(q)", "¬P(p ∧ q)"}
	s1 := newTestSolver(t, lines...)
	s2 := newTestSolver(t, lines...)
	if sat, err := s1.Solve(); err != nil || !sat {
		t.Fatalf("first run: sat=%t, err=%v", sat, err)
	}
	if sat, err := s2.Solve(); err != nil || !sat {
		t.Fatalf("second run: sat=%t, err=%v", sat, err)
	}
	if diff := cmp.Diff(s1.ModalValues(), s2.ModalValues(), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("witness differs across runs (-first +second):\n%s", diff)
	}
}

func TestReportFile(t *testing.T) {
	s := newTestSolver(t, "P(p)")
	sat, err := s.Solve()
	if err != nil || !sat {
		t.Fatalf("sat=%t, err=%v", sat, err)
	}
	outPath := strings.TrimSuffix(s.inputPath, ".fpl") + ".out"
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"======= MODAL ATOMS VALUATION ====",
		"==== PROBABILITY DISTRIBUTION ====",
		"P(p) = 1",
		"(p=1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q:\n%s", want, out)
		}
	}
}

func TestPBFallback(t *testing.T) {
	s := newTestSolver(t, "P(p)")
	s.SetPBOptions(true, "definitely-not-a-pb-solver-on-path", "")
	if s.mode != pricingExhaustive {
		t.Error("missing PB executable should fall back to exhaustive pricing")
	}
}
