// Package lp is a thin facade over the CLP simplex solver. A Program owns
// its own sparse model (named columns with bounds, rows with a LE/GE/EQ
// sense, a linear objective) and loads it into a fresh simplex instance on
// each Solve call, so cloning a Program is a plain data copy with fully
// independent solver state.
package lp

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/lanl/clp"
)

// A Sense fixes how a row is bounded by its right-hand side.
type Sense byte

// Row senses. LE bounds the row above by rhs, GE below, EQ both sides.
const (
	LE Sense = iota
	GE
	EQ
)

// A Term is one sparse entry of a row: a coefficient applied to a variable.
type Term struct {
	Var   int
	Coeff float64
}

type row struct {
	terms    []Term
	lhs, rhs float64
}

// A Program is a linear program in the facade's own representation.
// Variable indices are stable for the lifetime of the Program, and dual
// multipliers correspond row-wise to the order rows were added.
type Program struct {
	names []string
	index map[string]int
	lower []float64
	upper []float64
	obj   []float64
	rows  []row

	objVal float64
	primal []float64
	duals  []float64
}

// New returns an empty minimization program.
func New() *Program {
	return &Program{index: make(map[string]int)}
}

// AddVariable appends a column with the given bounds and returns its index.
// Adding two variables with the same name is a programmer error.
func (p *Program) AddVariable(name string, lb, ub float64) int {
	if _, dup := p.index[name]; dup {
		panic("duplicate LP variable name " + name)
	}
	idx := len(p.names)
	p.names = append(p.names, name)
	p.index[name] = idx
	p.lower = append(p.lower, lb)
	p.upper = append(p.upper, ub)
	p.obj = append(p.obj, 0)
	return idx
}

// AddConstraint appends a row over the given sparse terms and returns its
// index.
func (p *Program) AddConstraint(terms []Term, sense Sense, rhs float64) int {
	r := row{
		terms: append([]Term(nil), terms...),
		lhs:   math.Inf(-1),
		rhs:   math.Inf(1),
	}
	switch sense {
	case LE:
		r.rhs = rhs
	case GE:
		r.lhs = rhs
	case EQ:
		r.lhs, r.rhs = rhs, rhs
	default:
		panic("constraint with invalid sense")
	}
	p.rows = append(p.rows, r)
	return len(p.rows) - 1
}

// AddCoefficientToRow adds value to the coefficient of the given variable in
// an existing row, leaving the row bounds unchanged. This is the hot
// operation during column generation.
func (p *Program) AddCoefficientToRow(rowIdx, varIdx int, value float64) {
	r := &p.rows[rowIdx]
	for i := range r.terms {
		if r.terms[i].Var == varIdx {
			r.terms[i].Coeff += value
			return
		}
	}
	r.terms = append(r.terms, Term{Var: varIdx, Coeff: value})
}

// SetObjectiveCoefficient sets the objective coefficient of a variable.
func (p *Program) SetObjectiveCoefficient(varIdx int, coeff float64) {
	p.obj[varIdx] = coeff
}

// SetMinimizationObjective fixes the optimization direction to
// minimization. Every Program minimizes; the call is kept for symmetry with
// the construction sequence of the encoder.
func (p *Program) SetMinimizationObjective() {}

// Solve loads the model into a fresh CLP simplex and runs the primal
// algorithm. It returns true iff the simplex reports an optimum; infeasible,
// unbounded and aborted outcomes all report false.
func (p *Program) Solve() bool {
	cols := make([][]clp.Nonzero, len(p.names))
	for i := range p.rows {
		for _, t := range p.rows[i].terms {
			cols[t.Var] = append(cols[t.Var], clp.Nonzero{Index: i, Value: t.Coeff})
		}
	}
	mat := clp.NewPackedMatrix()
	colBounds := make([]clp.Bounds, len(p.names))
	for j := range p.names {
		mat.AppendColumn(cols[j])
		colBounds[j] = clp.Bounds{Lower: p.lower[j], Upper: p.upper[j]}
	}
	rowBounds := make([]clp.Bounds, len(p.rows))
	for i := range p.rows {
		rowBounds[i] = clp.Bounds{Lower: p.rows[i].lhs, Upper: p.rows[i].rhs}
	}
	simp := clp.NewSimplex()
	simp.LoadProblem(mat, colBounds, p.obj, rowBounds, nil)
	simp.SetOptimizationDirection(clp.Minimize)
	if simp.Primal(clp.NoValuesPass, clp.NoStartFinishOptions) != clp.Optimal {
		return false
	}
	p.objVal = simp.ObjectiveValue()
	p.primal = simp.PrimalColumnSolution()
	p.duals = simp.DualRowSolution()
	return true
}

// ObjectiveValue returns the objective of the last successful Solve.
func (p *Program) ObjectiveValue() float64 { return p.objVal }

// VariableValue returns the primal value of a variable in the last
// successful Solve.
func (p *Program) VariableValue(index int) float64 {
	if p.primal == nil {
		panic("no primal solution available")
	}
	return p.primal[index]
}

// Duals returns the simplex multipliers of the last successful Solve, one
// per row, in the order rows were added.
func (p *Program) Duals() []float64 {
	if p.duals == nil {
		panic("no dual solution available")
	}
	return append([]float64(nil), p.duals...)
}

// VarIndex returns the index of the named variable.
func (p *Program) VarIndex(name string) (int, bool) {
	idx, ok := p.index[name]
	return idx, ok
}

// VarName returns the name of the variable at the given index.
func (p *Program) VarName(index int) string { return p.names[index] }

// NumVars returns the number of columns.
func (p *Program) NumVars() int { return len(p.names) }

// NumRows returns the number of rows.
func (p *Program) NumRows() int { return len(p.rows) }

// Row returns a copy of the terms of a row together with its bounds.
func (p *Program) Row(index int) ([]Term, float64, float64) {
	r := p.rows[index]
	return append([]Term(nil), r.terms...), r.lhs, r.rhs
}

// BinaryVariableNames returns every variable name beginning with the
// auxiliary-binary prefix "b(", sorted.
func (p *Program) BinaryVariableNames() []string {
	var names []string
	for _, name := range p.names {
		if strings.HasPrefix(name, "b(") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent deep copy of the program, including the
// solution values of the last Solve.
func (p *Program) Clone() *Program {
	c := &Program{
		names:  append([]string(nil), p.names...),
		index:  make(map[string]int, len(p.index)),
		lower:  append([]float64(nil), p.lower...),
		upper:  append([]float64(nil), p.upper...),
		obj:    append([]float64(nil), p.obj...),
		rows:   make([]row, len(p.rows)),
		objVal: p.objVal,
	}
	for name, idx := range p.index {
		c.index[name] = idx
	}
	for i := range p.rows {
		c.rows[i] = row{
			terms: append([]Term(nil), p.rows[i].terms...),
			lhs:   p.rows[i].lhs,
			rhs:   p.rows[i].rhs,
		}
	}
	if p.primal != nil {
		c.primal = append([]float64(nil), p.primal...)
	}
	if p.duals != nil {
		c.duals = append([]float64(nil), p.duals...)
	}
	return c
}

// Write prints a readable snapshot of the program.
func (p *Program) Write(w io.Writer) {
	fmt.Fprintf(w, "=== Variables ===\n")
	for i, name := range p.names {
		fmt.Fprintf(w, "  [%2d] %s ∈ [%g, %g]\n", i, name, p.lower[i], p.upper[i])
	}
	fmt.Fprintf(w, "\n=== Constraints ===\n")
	for i := range p.rows {
		r := p.rows[i]
		fmt.Fprintf(w, "  [row %d] ", i)
		for j, t := range r.terms {
			if j > 0 {
				fmt.Fprint(w, " + ")
			}
			fmt.Fprintf(w, "%g*%s", t.Coeff, p.names[t.Var])
		}
		switch {
		case r.lhs == r.rhs:
			fmt.Fprintf(w, " == %g", r.rhs)
		case !math.IsInf(r.lhs, -1):
			fmt.Fprintf(w, " >= %g", r.lhs)
		case !math.IsInf(r.rhs, 1):
			fmt.Fprintf(w, " <= %g", r.rhs)
		default:
			fmt.Fprint(w, " (free row)")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n=== Total: %d variables, %d constraints ===\n", len(p.names), len(p.rows))
}
