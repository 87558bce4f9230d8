package solver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// report emits the witness to standard output and to the sibling
// <stem>.out file: the value of every encoded modal subformula, then the
// probability distribution in column-discovery order. Under exhaustive
// pricing a column is labelled by the bitmask of its valuation; under
// pseudo-boolean pricing by its discovery index.
func (s *Solver) report() error {
	ids := make([]string, 0, len(s.lastModalValues))
	for id := range s.lastModalValues {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("\n==== MODAL ATOMS VALUATION ====")
	for _, id := range ids {
		fmt.Printf("%s = %g\n", id, s.lastModalValues[id])
	}
	fmt.Println("\n==== PROBABILITY DISTRIBUTION ====")
	for i := range s.lastDistribution {
		fmt.Println(s.distributionLine(i))
	}

	outPath := s.outputPath()
	var b strings.Builder
	b.WriteString("======= MODAL ATOMS VALUATION ====\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "%s = %g\n", id, s.lastModalValues[id])
	}
	b.WriteString("\n==== PROBABILITY DISTRIBUTION ====\n")
	for i := range s.lastDistribution {
		b.WriteString(s.distributionLine(i))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(outPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("could not write output file %q: %v", outPath, err)
	}
	fmt.Printf("\nResult saved in: %s\n", outPath)
	return nil
}

// outputPath replaces the input file's final extension with .out.
func (s *Solver) outputPath() string {
	ext := filepath.Ext(s.inputPath)
	return s.inputPath[:len(s.inputPath)-len(ext)] + ".out"
}

func (s *Solver) distributionLine(i int) string {
	k := i
	if s.mode == pricingExhaustive {
		k = bitmask(s.lastValuations[i])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "p(%d) = %g   (", k, s.lastDistribution[i])
	for j, name := range s.vars.Names() {
		if j > 0 {
			b.WriteString(", ")
		}
		bit := "0"
		if s.lastValuations[i][j] {
			bit = "1"
		}
		fmt.Fprintf(&b, "%s=%s", name, bit)
	}
	b.WriteByte(')')
	return b.String()
}
