package formula

import (
	"fmt"
	"math"
)

// A CPLOp identifies the connective of a CPL node.
type CPLOp byte

// CPL connectives.
const (
	CPLVar CPLOp = iota
	CPLNot
	CPLAnd
	CPLOr
	CPLImplies
	CPLIff
)

// A CPL is a formula of classical propositional logic, the inner level of
// FP(Ł). Trees are immutable once built: the only mutation after
// construction is the lazy caching of the canonical string.
type CPL struct {
	Op          CPLOp
	Name        string // identifier, when Op == CPLVar
	Left, Right *CPL

	str string // cached canonical form
}

// Var generates a named propositional variable.
func Var(name string) *CPL { return &CPL{Op: CPLVar, Name: name} }

// Not negates the given subformula.
func Not(f *CPL) *CPL { return &CPL{Op: CPLNot, Left: f} }

// And generates a conjunction of two subformulas.
func And(l, r *CPL) *CPL { return &CPL{Op: CPLAnd, Left: l, Right: r} }

// Or generates a disjunction of two subformulas.
func Or(l, r *CPL) *CPL { return &CPL{Op: CPLOr, Left: l, Right: r} }

// Implies generates an implication between two subformulas.
func Implies(l, r *CPL) *CPL { return &CPL{Op: CPLImplies, Left: l, Right: r} }

// Iff generates an equivalence between two subformulas.
func Iff(l, r *CPL) *CPL { return &CPL{Op: CPLIff, Left: l, Right: r} }

// String returns the canonical fully-parenthesized form of the formula.
// It is computed once and cached; two structurally equal formulas always
// have the same canonical form.
func (f *CPL) String() string {
	if f.str == "" {
		switch f.Op {
		case CPLVar:
			f.str = f.Name
		case CPLNot:
			f.str = "¬(" + f.Left.String() + ")"
		case CPLAnd:
			f.str = "(" + f.Left.String() + " ∧ " + f.Right.String() + ")"
		case CPLOr:
			f.str = "(" + f.Left.String() + " ∨ " + f.Right.String() + ")"
		case CPLImplies:
			f.str = "(" + f.Left.String() + " → " + f.Right.String() + ")"
		case CPLIff:
			f.str = "(" + f.Left.String() + " ↔ " + f.Right.String() + ")"
		default:
			panic("invalid CPL connective")
		}
	}
	return f.str
}

// Eval returns the classical truth value of the formula under the given
// model. It panics if the model lacks a binding for a variable of f.
func (f *CPL) Eval(model map[string]bool) bool {
	switch f.Op {
	case CPLVar:
		b, ok := model[f.Name]
		if !ok {
			panic(fmt.Errorf("model lacks binding for variable %s", f.Name))
		}
		return b
	case CPLNot:
		return !f.Left.Eval(model)
	case CPLAnd:
		return f.Left.Eval(model) && f.Right.Eval(model)
	case CPLOr:
		return f.Left.Eval(model) || f.Right.Eval(model)
	case CPLImplies:
		return !f.Left.Eval(model) || f.Right.Eval(model)
	case CPLIff:
		return f.Left.Eval(model) == f.Right.Eval(model)
	default:
		panic("invalid CPL connective")
	}
}

// CollectVars records every propositional identifier reachable in f into
// tab, preserving first-seen order.
func (f *CPL) CollectVars(tab *VarTable) {
	switch f.Op {
	case CPLVar:
		tab.Add(f.Name)
	case CPLNot:
		f.Left.CollectVars(tab)
	default:
		f.Left.CollectVars(tab)
		f.Right.CollectVars(tab)
	}
}

// Clone returns an independent deep copy of the formula.
func (f *CPL) Clone() *CPL {
	c := &CPL{Op: f.Op, Name: f.Name}
	if f.Left != nil {
		c.Left = f.Left.Clone()
	}
	if f.Right != nil {
		c.Right = f.Right.Clone()
	}
	return c
}

// A ModalOp identifies the connective of a modal node.
type ModalOp byte

// Modal connectives. PAtomOp wraps a CPL formula and is a leaf of the modal
// tree; ModalOPlus and ModalODot are the Łukasiewicz strong connectives.
const (
	PAtomOp ModalOp = iota
	ModalNot
	ModalAnd
	ModalOr
	ModalImplies
	ModalIff
	ModalOPlus
	ModalODot
)

// A Modal is a formula of the outer Łukasiewicz level of FP(Ł). Its leaves
// are probability atoms P(φ) wrapping CPL formulas.
type Modal struct {
	Op          ModalOp
	Atom        *CPL // body of P(φ), when Op == PAtomOp
	Left, Right *Modal

	str string // cached canonical form
}

// PAtom wraps a CPL formula into the probability atom P(φ).
func PAtom(phi *CPL) *Modal { return &Modal{Op: PAtomOp, Atom: phi} }

// MNot negates the given modal subformula.
func MNot(f *Modal) *Modal { return &Modal{Op: ModalNot, Left: f} }

// MAnd generates a weak (min) conjunction.
func MAnd(l, r *Modal) *Modal { return &Modal{Op: ModalAnd, Left: l, Right: r} }

// MOr generates a weak (max) disjunction.
func MOr(l, r *Modal) *Modal { return &Modal{Op: ModalOr, Left: l, Right: r} }

// MImplies generates a Łukasiewicz implication.
func MImplies(l, r *Modal) *Modal { return &Modal{Op: ModalImplies, Left: l, Right: r} }

// MIff generates a Łukasiewicz equivalence.
func MIff(l, r *Modal) *Modal { return &Modal{Op: ModalIff, Left: l, Right: r} }

// OPlus generates a strong disjunction, min(1, l+r).
func OPlus(l, r *Modal) *Modal { return &Modal{Op: ModalOPlus, Left: l, Right: r} }

// ODot generates a strong conjunction, max(0, l+r-1).
func ODot(l, r *Modal) *Modal { return &Modal{Op: ModalODot, Left: l, Right: r} }

// String returns the canonical fully-parenthesized form of the formula,
// computed once and cached. The canonical form doubles as the stable key
// naming the formula's variables in the linear program.
func (f *Modal) String() string {
	if f.str == "" {
		switch f.Op {
		case PAtomOp:
			f.str = "P(" + f.Atom.String() + ")"
		case ModalNot:
			f.str = "¬(" + f.Left.String() + ")"
		case ModalAnd:
			f.str = "(" + f.Left.String() + " ∧ " + f.Right.String() + ")"
		case ModalOr:
			f.str = "(" + f.Left.String() + " ∨ " + f.Right.String() + ")"
		case ModalImplies:
			f.str = "(" + f.Left.String() + " → " + f.Right.String() + ")"
		case ModalIff:
			f.str = "(" + f.Left.String() + " ↔ " + f.Right.String() + ")"
		case ModalOPlus:
			f.str = "(" + f.Left.String() + " ⊕ " + f.Right.String() + ")"
		case ModalODot:
			f.str = "(" + f.Left.String() + " ⊙ " + f.Right.String() + ")"
		default:
			panic("invalid modal connective")
		}
	}
	return f.str
}

// Eval returns the Łukasiewicz truth value of the formula, given a value in
// [0,1] for each probability atom, keyed by the atom's canonical form.
// It panics if a binding is missing.
func (f *Modal) Eval(atoms map[string]float64) float64 {
	switch f.Op {
	case PAtomOp:
		v, ok := atoms[f.String()]
		if !ok {
			panic(fmt.Errorf("valuation lacks binding for atom %s", f.String()))
		}
		return v
	case ModalNot:
		return 1 - f.Left.Eval(atoms)
	case ModalAnd:
		return math.Min(f.Left.Eval(atoms), f.Right.Eval(atoms))
	case ModalOr:
		return math.Max(f.Left.Eval(atoms), f.Right.Eval(atoms))
	case ModalImplies:
		return math.Min(1, 1-f.Left.Eval(atoms)+f.Right.Eval(atoms))
	case ModalIff:
		return 1 - math.Abs(f.Left.Eval(atoms)-f.Right.Eval(atoms))
	case ModalOPlus:
		return math.Min(1, f.Left.Eval(atoms)+f.Right.Eval(atoms))
	case ModalODot:
		return math.Max(0, f.Left.Eval(atoms)+f.Right.Eval(atoms)-1)
	default:
		panic("invalid modal connective")
	}
}

// CollectVars records every propositional identifier reachable in f,
// descending into probability atoms, preserving first-seen order.
func (f *Modal) CollectVars(tab *VarTable) {
	switch f.Op {
	case PAtomOp:
		f.Atom.CollectVars(tab)
	case ModalNot:
		f.Left.CollectVars(tab)
	default:
		f.Left.CollectVars(tab)
		f.Right.CollectVars(tab)
	}
}

// Clone returns an independent deep copy of the formula.
func (f *Modal) Clone() *Modal {
	c := &Modal{Op: f.Op}
	if f.Atom != nil {
		c.Atom = f.Atom.Clone()
	}
	if f.Left != nil {
		c.Left = f.Left.Clone()
	}
	if f.Right != nil {
		c.Right = f.Right.Clone()
	}
	return c
}

// Atoms returns the bodies of the distinct probability atoms reachable in
// the given formulas, in first-seen order. Distinctness is structural,
// through the canonical form.
func Atoms(formulas ...*Modal) []*CPL {
	seen := make(map[string]bool)
	var out []*CPL
	var walk func(f *Modal)
	walk = func(f *Modal) {
		if f.Op == PAtomOp {
			if id := f.Atom.String(); !seen[id] {
				seen[id] = true
				out = append(out, f.Atom)
			}
			return
		}
		walk(f.Left)
		if f.Right != nil {
			walk(f.Right)
		}
	}
	for _, f := range formulas {
		walk(f)
	}
	return out
}

// A VarTable is the ordered set of distinct propositional identifiers
// appearing in the input. Each identifier gets a stable index, in
// observation order. It is read-only after preprocessing.
type VarTable struct {
	index map[string]int
	names []string
}

// NewVarTable returns an empty variable table.
func NewVarTable() *VarTable {
	return &VarTable{index: make(map[string]int)}
}

// Add records the identifier if it is new and returns its index.
func (t *VarTable) Add(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	idx := len(t.names)
	t.index[name] = idx
	t.names = append(t.names, name)
	return idx
}

// Len returns the number of distinct identifiers recorded.
func (t *VarTable) Len() int { return len(t.names) }

// Names returns the identifiers in insertion order. The returned slice is
// shared and must not be modified.
func (t *VarTable) Names() []string { return t.names }

// Index returns the index of the given identifier.
func (t *VarTable) Index(name string) (int, bool) {
	idx, ok := t.index[name]
	return idx, ok
}
