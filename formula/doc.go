// Package formula deals with formulas of the two-level probabilistic modal
// logic FP(Ł): classical propositional formulas at the inner level, and
// Łukasiewicz modal formulas over probability atoms P(φ) at the outer level.
// It provides constructors for both kinds of trees, canonical string
// identifiers, evaluation, and parsers for the Unicode concrete syntax.
package formula
