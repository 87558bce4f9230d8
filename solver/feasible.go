package solver

import (
	"fmt"
	"os"

	"github.com/fplsol/fplsol/formula"
	"github.com/fplsol/fplsol/lp"
)

// valuationKey renders a valuation as a bitstring in variable-table order,
// the form used to track used valuations.
func valuationKey(val []bool) string {
	buf := make([]byte, len(val))
	for i, b := range val {
		if b {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

// bitmask packs a valuation into an integer, bit j holding the truth of
// variable j.
func bitmask(val []bool) int {
	w := 0
	for j, b := range val {
		if b {
			w |= 1 << j
		}
	}
	return w
}

// evalPsi evaluates a probability-atom body under a valuation of the
// variable table.
func (s *Solver) evalPsi(psi *formula.CPL, val []bool) bool {
	model := make(map[string]bool, len(val))
	for j, name := range s.vars.Names() {
		model[name] = val[j]
	}
	return psi.Eval(model)
}

// isFeasible decides whether prog admits a probability distribution over
// classical valuations coherent with its probability-atom variables. It
// works on a clone of a branch LP: probability columns are generated
// lazily, one per valuation, priced by the configured oracle. On success
// the witness (modal values, distribution, valuations) is stored on the
// solver.
func (s *Solver) isFeasible(prog *lp.Program) (bool, error) {
	used := make(map[string]bool)
	var valuations [][]bool
	var pCols []int
	n := s.vars.Len()

	// The all-false valuation is always the first column.
	zero := make([]bool, n)
	pIdx := prog.AddVariable("p(0)", 0, 1)
	s.addColumn(prog, pIdx, zero)
	used[valuationKey(zero)] = true
	valuations = append(valuations, zero)
	pCols = append(pCols, pIdx)

	for iter := 1; ; iter++ {
		if s.verbose {
			fmt.Println("c ============== LINEAR PROGRAM ==============")
			prog.Write(os.Stdout)
			fmt.Println("c ============================================")
		}

		if !prog.Solve() {
			if s.verbose {
				fmt.Printf("c [feasibility] infeasible LP at iteration %d\n", iter)
			}
			return false, nil
		}

		obj := prog.ObjectiveValue()
		if s.verbose {
			fmt.Printf("c [feasibility] iteration %d, objective %g\n", iter, obj)
		}

		if obj <= tolerance {
			// Optimum at cost zero: the unslacked system is satisfiable.
			s.lastModalValues = make(map[string]float64, len(s.xVars))
			for id, idx := range s.xVars {
				s.lastModalValues[id] = prog.VariableValue(idx)
			}
			s.lastDistribution = make([]float64, len(pCols))
			for i, c := range pCols {
				s.lastDistribution[i] = prog.VariableValue(c)
			}
			s.lastValuations = valuations
			return true, nil
		}

		val, found, err := s.priceColumn(prog, used)
		if err != nil {
			return false, err
		}
		if !found {
			if s.verbose {
				fmt.Println("c [feasibility] no valuations remaining")
			}
			return false, nil
		}

		var name string
		if s.mode == pricingExhaustive {
			name = fmt.Sprintf("p(%d)", bitmask(val))
		} else {
			name = fmt.Sprintf("p(%d)", len(valuations))
		}
		pIdx := prog.AddVariable(name, 0, 1)
		s.addColumn(prog, pIdx, val)
		valuations = append(valuations, val)
		pCols = append(pCols, pIdx)
	}
}

// addColumn installs the probability column of a valuation: coefficient
// ψᵢ(w) in each coherence row when non-zero, and 1 in the normalization
// row.
func (s *Solver) addColumn(prog *lp.Program, pIdx int, val []bool) {
	for i, psi := range s.psiList {
		if s.evalPsi(psi, val) {
			prog.AddCoefficientToRow(s.probRows[i], pIdx, 1)
		}
	}
	prog.AddCoefficientToRow(s.sumProbRow, pIdx, 1)
}
