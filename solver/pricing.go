package solver

import (
	"fmt"
	"math"
	"sort"

	gsolver "github.com/crillab/gophersat/solver"

	"github.com/fplsol/fplsol/formula"
	"github.com/fplsol/fplsol/lp"
)

// dualScale converts dual multipliers to the integer weights of the
// pseudo-boolean reduced-cost inequality.
const dualScale = 1e6

// priceColumn searches for a valuation, not used yet, whose column has
// negative reduced cost in the current LP solution. The returned valuation
// is recorded in used. found is false when no such valuation exists.
func (s *Solver) priceColumn(prog *lp.Program, used map[string]bool) (val []bool, found bool, err error) {
	duals := prog.Duals()
	switch s.mode {
	case pricingExternal:
		return s.priceExternal(duals, used)
	case pricingBuiltin:
		return s.priceBuiltin(duals, used)
	default:
		val, found = s.priceExhaustive(duals, used)
		return val, found, nil
	}
}

// priceExhaustive enumerates the 2ⁿ valuations in bitmask order, skipping
// used ones, and returns the first with negative reduced cost. Every
// valuation it inspects is marked used, whether or not it is returned, so
// each valuation is inspected at most once per feasibility query even though
// the duals change between calls.
func (s *Solver) priceExhaustive(duals []float64, used map[string]bool) ([]bool, bool) {
	n := s.vars.Len()
	total := 1 << uint(n)
	for w := 0; w < total; w++ {
		val := make([]bool, n)
		for j := 0; j < n; j++ {
			val[j] = w>>uint(j)&1 == 1
		}
		key := valuationKey(val)
		if used[key] {
			continue
		}
		used[key] = true

		reduced := -duals[s.sumProbRow]
		for i, psi := range s.psiList {
			if s.evalPsi(psi, val) {
				reduced -= duals[s.probRows[i]]
			}
		}
		if s.verbose {
			fmt.Printf("c valuation %s, reduced cost %g\n", key, reduced)
		}
		if reduced < 0 {
			return val, true
		}
	}
	return nil, false
}

// A pbProblem is the pseudo-boolean system whose models are exactly the
// improving valuations: Tseitin clauses defining one indicator per
// probability-atom body, exclusion clauses ruling out used valuations, and
// the scaled reduced-cost inequality. Propositional variable j of the
// table is PB variable j+1; fresh auxiliaries follow.
type pbProblem struct {
	n         int
	nextVar   int
	clauses   [][]int // 1-based signed literals
	exclStart int     // index of the first exclusion clause
	yLits     []int
	weights   []int
	rhs       int
}

// buildPBProblem assembles the system for the current duals and used set.
func (s *Solver) buildPBProblem(duals []float64, used map[string]bool) *pbProblem {
	n := s.vars.Len()
	pb := &pbProblem{n: n, nextVar: n + 1}

	for _, psi := range s.psiList {
		pb.yLits = append(pb.yLits, pb.encode(psi, s.vars))
	}
	pb.exclStart = len(pb.clauses)

	keys := make([]string, 0, len(used))
	for k := range used {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lits := make([]int, n)
		for j := 0; j < n; j++ {
			if k[j] == '1' {
				lits[j] = -(j + 1)
			} else {
				lits[j] = j + 1
			}
		}
		pb.clauses = append(pb.clauses, lits)
	}

	for i := range s.psiList {
		pb.weights = append(pb.weights, int(math.Round(duals[s.probRows[i]]*dualScale)))
	}
	dSum := int(math.Round(duals[s.sumProbRow] * dualScale))
	pb.rhs = 1 - dSum
	return pb
}

func (pb *pbProblem) fresh() int {
	v := pb.nextVar
	pb.nextVar++
	return v
}

// encode Tseitin-encodes a CPL formula and returns the PB variable that is
// true exactly when the formula holds.
func (pb *pbProblem) encode(f *formula.CPL, vars *formula.VarTable) int {
	if f.Op == formula.CPLVar {
		idx, ok := vars.Index(f.Name)
		if !ok {
			panic("propositional variable not in table: " + f.Name)
		}
		return idx + 1
	}

	l := pb.encode(f.Left, vars)
	r := 0
	if f.Right != nil {
		r = pb.encode(f.Right, vars)
	}
	y := pb.fresh()

	switch f.Op {
	case formula.CPLNot:
		pb.clauses = append(pb.clauses, []int{l, y}, []int{-l, -y})
	case formula.CPLAnd:
		pb.clauses = append(pb.clauses, []int{l, -y}, []int{r, -y}, []int{-l, -r, y})
	case formula.CPLOr:
		pb.clauses = append(pb.clauses, []int{-l, y}, []int{-r, y}, []int{l, r, -y})
	case formula.CPLImplies:
		pb.clauses = append(pb.clauses, []int{-r, y}, []int{l, y}, []int{-l, r, -y})
	case formula.CPLIff:
		pb.clauses = append(pb.clauses,
			[]int{-y, -l, r}, []int{-y, l, -r}, []int{-l, -r, y}, []int{l, r, y})
	default:
		panic("unsupported CPL connective")
	}
	return y
}

// priceBuiltin solves the pricing system with the embedded gophersat
// solver.
func (s *Solver) priceBuiltin(duals []float64, used map[string]bool) ([]bool, bool, error) {
	pb := s.buildPBProblem(duals, used)

	constrs := make([]gsolver.PBConstr, 0, len(pb.clauses)+1)
	for _, clause := range pb.clauses {
		constrs = append(constrs, gsolver.PropClause(clause...))
	}
	var lits, weights []int
	for i, w := range pb.weights {
		if w == 0 {
			continue
		}
		lits = append(lits, pb.yLits[i])
		weights = append(weights, w)
	}
	constrs = append(constrs, gsolver.GtEq(lits, weights, pb.rhs))

	gs := gsolver.New(gsolver.ParsePBConstrs(constrs))
	if gs.Solve() != gsolver.Sat {
		return nil, false, nil
	}
	model := gs.Model()
	val := make([]bool, pb.n)
	for j := 0; j < pb.n && j < len(model); j++ {
		val[j] = model[j]
	}
	used[valuationKey(val)] = true
	if s.verbose {
		fmt.Printf("c [pricing] column %s added via embedded PB solver\n", valuationKey(val))
	}
	return val, true, nil
}
