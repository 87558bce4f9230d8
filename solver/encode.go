package solver

import (
	"github.com/fplsol/fplsol/formula"
	"github.com/fplsol/fplsol/lp"
)

// encodeModal emits, for each distinct subformula of f, a variable
// x(id) ∈ [0,1] holding its Łukasiewicz truth value, an auxiliary binary
// b(id) ∈ [0,1] for every connective except NOT and P_ATOM, and the rows
// tying them together. Encoding is memoised on the canonical id, so shared
// subformulas share variables and rows. Probability atoms get only their x
// variable; they are linked to a distribution by the feasibility engine.
func (s *Solver) encodeModal(f *formula.Modal, prog *lp.Program) {
	id := f.String()
	if _, done := s.xVars[id]; done {
		return
	}

	if f.Op == formula.PAtomOp {
		s.xVars[id] = prog.AddVariable("x("+id+")", 0, 1)
		return
	}

	s.encodeModal(f.Left, prog)
	leftX := s.xVars[f.Left.String()]
	rightX := -1
	if f.Right != nil {
		s.encodeModal(f.Right, prog)
		rightX = s.xVars[f.Right.String()]
	}

	xIdx := prog.AddVariable("x("+id+")", 0, 1)
	s.xVars[id] = xIdx
	bIdx := -1
	if f.Op != formula.ModalNot {
		bIdx = prog.AddVariable("b("+id+")", 0, 1)
		s.bVars[id] = bIdx
	}

	switch f.Op {
	case formula.ModalNot:
		// x = 1 - l
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: -1}, {Var: xIdx, Coeff: 1}}, lp.EQ, 1)
	case formula.ModalOPlus:
		// x = min(1, l+r)
		prog.AddConstraint([]lp.Term{{Var: bIdx, Coeff: 1}, {Var: xIdx, Coeff: -1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: xIdx, Coeff: 1}}, lp.LE, 1)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: rightX, Coeff: 1}, {Var: bIdx, Coeff: -1}, {Var: xIdx, Coeff: -1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: -1}, {Var: rightX, Coeff: -1}, {Var: xIdx, Coeff: 1}}, lp.LE, 0)
	case formula.ModalODot:
		// x = max(0, l+r-1)
		prog.AddConstraint([]lp.Term{{Var: xIdx, Coeff: 1}}, lp.GE, 0)
		prog.AddConstraint([]lp.Term{{Var: xIdx, Coeff: 1}, {Var: bIdx, Coeff: -1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: rightX, Coeff: 1}, {Var: xIdx, Coeff: -1}}, lp.GE, 1)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: rightX, Coeff: 1}, {Var: bIdx, Coeff: -1}, {Var: xIdx, Coeff: -1}}, lp.LE, 0)
	case formula.ModalAnd:
		// x = min(l, r)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: bIdx, Coeff: -1}, {Var: xIdx, Coeff: -1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: -1}, {Var: xIdx, Coeff: 1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: rightX, Coeff: 1}, {Var: bIdx, Coeff: 1}, {Var: xIdx, Coeff: -1}}, lp.LE, 1)
		prog.AddConstraint([]lp.Term{{Var: rightX, Coeff: -1}, {Var: xIdx, Coeff: 1}}, lp.LE, 0)
	case formula.ModalOr:
		// x = max(l, r)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: xIdx, Coeff: -1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: -1}, {Var: xIdx, Coeff: 1}, {Var: bIdx, Coeff: -1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: rightX, Coeff: 1}, {Var: xIdx, Coeff: -1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: rightX, Coeff: -1}, {Var: xIdx, Coeff: 1}, {Var: bIdx, Coeff: 1}}, lp.LE, 1)
	case formula.ModalImplies:
		// x = min(1, 1-l+r)
		prog.AddConstraint([]lp.Term{{Var: bIdx, Coeff: 1}, {Var: xIdx, Coeff: -1}}, lp.LE, 0)
		prog.AddConstraint([]lp.Term{{Var: xIdx, Coeff: 1}}, lp.LE, 1)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: rightX, Coeff: -1}, {Var: bIdx, Coeff: 1}, {Var: xIdx, Coeff: 1}}, lp.GE, 1)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: rightX, Coeff: -1}, {Var: xIdx, Coeff: 1}}, lp.LE, 1)
	case formula.ModalIff:
		// x = 1 - |l-r|
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: rightX, Coeff: -1}, {Var: bIdx, Coeff: 2}, {Var: xIdx, Coeff: 1}}, lp.GE, 1)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: rightX, Coeff: -1}, {Var: xIdx, Coeff: 1}}, lp.LE, 1)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: 1}, {Var: rightX, Coeff: -1}, {Var: bIdx, Coeff: 2}, {Var: xIdx, Coeff: -1}}, lp.LE, 1)
		prog.AddConstraint([]lp.Term{{Var: leftX, Coeff: -1}, {Var: rightX, Coeff: 1}, {Var: xIdx, Coeff: 1}}, lp.LE, 1)
	default:
		panic("unknown modal connective")
	}
}
