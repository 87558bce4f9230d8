// Package solver decides satisfiability of FP(Ł) formula sets. The modal
// formulas are encoded into a linear program whose rows capture Łukasiewicz
// semantics; feasibility of the probabilistic side is checked by column
// generation over classical valuations, with either an exhaustive pricing
// oracle or a pseudo-boolean one; branch-and-bound over the auxiliary
// binaries of the encoding settles integrality.
package solver
