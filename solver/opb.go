package solver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// priceExternal prices a column by handing the pseudo-boolean system to an
// external solver. The OPB input and the captured output live next to the
// input file and are removed after each call.
func (s *Solver) priceExternal(duals []float64, used map[string]bool) ([]bool, bool, error) {
	dir := filepath.Dir(s.inputPath)
	stem := strings.TrimSuffix(filepath.Base(s.inputPath), filepath.Ext(s.inputPath))
	opbPath := filepath.Join(dir, "pb_input_"+stem+".opb")
	outPath := filepath.Join(dir, "pb_output_"+stem+".txt")

	pb := s.buildPBProblem(duals, used)
	if err := writeOPBFile(opbPath, pb); err != nil {
		return nil, false, err
	}
	defer os.Remove(opbPath)
	defer os.Remove(outPath)

	outFile, err := os.Create(outPath)
	if err != nil {
		return nil, false, fmt.Errorf("could not create PB output file %q: %v", outPath, err)
	}
	var args []string
	if s.pbArg != "" {
		args = strings.Fields(s.pbArg)
	}
	args = append(args, opbPath)
	cmd := exec.Command(s.pbSolver, args...)
	cmd.Stdout = outFile
	// PB solvers signal SAT/UNSAT through their exit status; a failure here
	// matters only if the output carries no model either.
	_ = cmd.Run()
	outFile.Close()

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, false, fmt.Errorf("could not read PB solver output %q: %v", outPath, err)
	}
	val, found := parsePBOutput(string(data), s.vars.Len())
	if !found {
		return nil, false, nil
	}
	used[valuationKey(val)] = true
	if s.verbose {
		fmt.Printf("c [pricing] column %s added via %s\n", valuationKey(val), s.pbSolver)
	}
	return val, true, nil
}

// writeOPBFile renders the pricing system in OPB syntax: the Tseitin
// clauses of the atom bodies, the used-valuation exclusions, and the
// reduced-cost inequality. PB variable k is written xk-1, so x0..xn-1 are
// the propositional variables of the table.
func writeOPBFile(path string, pb *pbProblem) error {
	var b strings.Builder
	for i, clause := range pb.clauses {
		if i == pb.exclStart {
			b.WriteString("* Used valuations\n")
		}
		for j, lit := range clause {
			if j > 0 {
				b.WriteByte(' ')
			}
			if lit > 0 {
				fmt.Fprintf(&b, "+1*x%d", lit-1)
			} else {
				fmt.Fprintf(&b, "-1*x%d", -lit-1)
			}
		}
		neg := 0
		for _, lit := range clause {
			if lit < 0 {
				neg++
			}
		}
		fmt.Fprintf(&b, " >= %d;\n", 1-neg)
	}
	if pb.exclStart == len(pb.clauses) {
		b.WriteString("* Used valuations\n")
	}
	b.WriteString("* Reduced-cost inequality\n")
	for i, w := range pb.weights {
		if w == 0 {
			continue
		}
		if w > 0 {
			fmt.Fprintf(&b, "+%d*x%d ", w, pb.yLits[i]-1)
		} else {
			fmt.Fprintf(&b, "%d*x%d ", w, pb.yLits[i]-1)
		}
	}
	fmt.Fprintf(&b, ">= %d;\n", pb.rhs)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("could not write OPB file %q: %v", path, err)
	}
	return nil
}

// parsePBOutput reads a PB solver's standard output. Lines starting with
// "v " carry signed literals: a bare xk sets variable k true, -xk false,
// and missing variables default to false. A line starting with
// "s UNSATISFIABLE" means no valuation exists. The parser is intentionally
// tolerant of anything else.
func parsePBOutput(output string, n int) ([]bool, bool) {
	val := make([]bool, n)
	found := false
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "s UNSATISFIABLE"):
			return nil, false
		case strings.HasPrefix(line, "v "):
			for _, token := range strings.Fields(line[2:]) {
				if strings.HasPrefix(token, "-") {
					continue
				}
				if strings.HasPrefix(token, "x") {
					idx, err := strconv.Atoi(token[1:])
					if err == nil && idx < n {
						val[idx] = true
					}
				}
			}
			found = true
		}
	}
	if !found {
		return nil, false
	}
	return val, true
}
