package solver

import (
	"fmt"
	"math"
	"os/exec"

	"github.com/kr/pretty"

	"github.com/fplsol/fplsol/formula"
	"github.com/fplsol/fplsol/lp"
)

// tolerance below which a phase-I objective counts as zero.
const tolerance = 1e-8

type pricingMode byte

const (
	pricingExhaustive pricingMode = iota
	pricingExternal
	pricingBuiltin
)

// A Solver decides satisfiability of a set of FP(Ł) formulas.
type Solver struct {
	formulas  []*formula.Modal
	inputPath string
	verbose   bool

	mode     pricingMode
	pbSolver string
	pbArg    string

	vars    *formula.VarTable
	psiList []*formula.CPL

	xVars      map[string]int
	bVars      map[string]int
	probRows   []int
	sumProbRow int

	// witness of the last feasible probe
	lastModalValues  map[string]float64
	lastDistribution []float64
	lastValuations   [][]bool
}

// A branch owns an LP clone together with the binaries fixed so far.
type branch struct {
	lp    *lp.Program
	fixed map[string]int
}

// New builds a solver for the given formulas. inputPath is the file the
// formulas were read from; the pseudo-boolean scratch files and the output
// report are placed next to it.
func New(formulas []*formula.Modal, inputPath string, verbose bool) *Solver {
	s := &Solver{
		formulas:  formulas,
		inputPath: inputPath,
		verbose:   verbose,
		mode:      pricingExternal,
		pbSolver:  "minisat+",
	}
	s.preprocess()
	return s
}

// preprocess builds the shared propositional variable table and the list of
// distinct probability-atom bodies, in first-seen order.
func (s *Solver) preprocess() {
	s.vars = formula.NewVarTable()
	for _, f := range s.formulas {
		f.CollectVars(s.vars)
	}
	s.psiList = formula.Atoms(s.formulas...)
}

// SetPBOptions configures column-generation pricing. With usePB false the
// exhaustive oracle is used. Otherwise pbSolver names the external
// pseudo-boolean command; if it is not on PATH the solver downgrades to
// exhaustive pricing with a one-line notice.
func (s *Solver) SetPBOptions(usePB bool, pbSolver, pbArg string) {
	s.pbSolver = pbSolver
	s.pbArg = pbArg
	if !usePB {
		s.mode = pricingExhaustive
		return
	}
	s.mode = pricingExternal
	if _, err := exec.LookPath(pbSolver); err != nil {
		fmt.Println("c column generation via exhaustive search")
		s.mode = pricingExhaustive
	}
}

// UseBuiltinPB switches pricing to the in-process gophersat oracle.
func (s *Solver) UseBuiltinPB() { s.mode = pricingBuiltin }

// Solve runs the decision procedure. It returns true on SAT, false on
// UNSAT; errors are I/O or solver failures, never an UNSAT outcome.
func (s *Solver) Solve() (bool, error) {
	root := s.buildRootLP()

	probe := root.Clone()
	feasible, err := s.isFeasible(probe)
	if err != nil {
		return false, err
	}
	if !feasible {
		if s.verbose {
			fmt.Println()
		}
		fmt.Println("UNSAT (infeasible relaxed problem)")
		return false, nil
	}

	// The binary set is snapshotted once, from the fully-encoded root LP:
	// encoding cannot add binaries mid-search.
	binaries := root.BinaryVariableNames()
	branches := []*branch{{lp: root, fixed: map[string]int{}}}

	for len(branches) > 0 && len(binaries) > 0 {
		b := binaries[0]
		binaries = binaries[1:]

		var next []*branch
		for _, br := range branches {
			for _, val := range []int{0, 1} {
				child := br.lp.Clone()
				idx, ok := child.VarIndex(b)
				if !ok {
					panic("binary variable not in LP: " + b)
				}
				child.AddConstraint([]lp.Term{{Var: idx, Coeff: 1}}, lp.EQ, float64(val))
				probe := child.Clone()
				feasible, err := s.isFeasible(probe)
				if err != nil {
					return false, err
				}
				if feasible {
					fixed := make(map[string]int, len(br.fixed)+1)
					for k, v := range br.fixed {
						fixed[k] = v
					}
					fixed[b] = val
					if s.verbose {
						fmt.Printf("c open branch %# v\n", pretty.Formatter(fixed))
					}
					next = append(next, &branch{lp: child, fixed: fixed})
				}
			}
		}
		branches = next
	}

	if len(branches) == 0 {
		if s.verbose {
			fmt.Println()
		}
		fmt.Println("UNSAT (all branches closed)")
		return false, nil
	}

	if s.verbose {
		fmt.Println()
	}
	fmt.Println("SAT (open branch found)")
	return true, s.report()
}

// buildRootLP encodes every input formula, asserts it holds, seeds the
// probabilistic coherence rows and the normalization row, and installs the
// phase-I slack objective.
func (s *Solver) buildRootLP() *lp.Program {
	root := lp.New()
	s.xVars = make(map[string]int)
	s.bVars = make(map[string]int)

	for _, f := range s.formulas {
		s.encodeModal(f, root)
	}

	for _, f := range s.formulas {
		id := f.String()
		xIdx, ok := s.xVars[id]
		if !ok {
			panic("FP(Ł) formula not translated: " + id)
		}
		root.AddConstraint([]lp.Term{{Var: xIdx, Coeff: 1}}, lp.EQ, 1)
	}

	// Seed rows -x(Pψ) = 0, one per distinct atom. The feasibility engine
	// completes them with probability-column coefficients so each becomes
	// Σ_w ψ(w)p(w) - x(Pψ) = 0.
	s.probRows = s.probRows[:0]
	for _, psi := range s.psiList {
		id := "P(" + psi.String() + ")"
		xIdx, ok := s.xVars[id]
		if !ok {
			panic("variable x(" + id + ") not found")
		}
		row := root.AddConstraint([]lp.Term{{Var: xIdx, Coeff: -1}}, lp.EQ, 0)
		s.probRows = append(s.probRows, row)
	}

	// Seed of the distribution-normalization row Σ_w p(w) = 1.
	s.sumProbRow = root.AddConstraint(nil, lp.EQ, 1)

	// Phase-I: one slack per row, minimized. The LP is feasible at cost 0
	// iff the unslacked row system is satisfiable.
	numRows := root.NumRows()
	for row := 0; row < numRows; row++ {
		iIdx := root.AddVariable(fmt.Sprintf("i(%d)", row), 0, math.Inf(1))
		root.AddCoefficientToRow(row, iIdx, 1)
		root.SetObjectiveCoefficient(iIdx, 1)
	}
	root.SetMinimizationObjective()
	return root
}

// ModalValues returns the witness values of every encoded subformula,
// keyed by canonical id, after a successful Solve.
func (s *Solver) ModalValues() map[string]float64 {
	out := make(map[string]float64, len(s.lastModalValues))
	for id, v := range s.lastModalValues {
		out[id] = v
	}
	return out
}

// Distribution returns the witness probabilities and their valuations, in
// column-discovery order, after a successful Solve. Each valuation is a
// bitvector over the variable table of the input.
func (s *Solver) Distribution() ([]float64, [][]bool) {
	return append([]float64(nil), s.lastDistribution...), s.lastValuations
}

// Vars returns the propositional variable table of the input.
func (s *Solver) Vars() *formula.VarTable { return s.vars }
