package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fplsol/fplsol/formula"
	"github.com/fplsol/fplsol/solver"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses the command line and drives the solver. Exit codes: 0 when the
// formula set is satisfiable, 2 when it is not, 1 on any error.
func run(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			code = 1
		}
	}()

	fs := flag.NewFlagSet("fplsol", flag.ContinueOnError)
	var (
		input     string
		noPB      bool
		builtinPB bool
		pbSolver  string
		pbArg     string
		verbose   bool
	)
	fs.StringVar(&input, "i", "", "input file, one FP(Ł) formula per line")
	fs.StringVar(&input, "input", "", "same as -i")
	fs.BoolVar(&noPB, "no-pb", false, "disable the PB oracle, price columns exhaustively")
	fs.BoolVar(&builtinPB, "builtin-pb", false, "price columns with the embedded gophersat PB solver")
	fs.StringVar(&pbSolver, "pbsolver", "minisat+", "command to invoke as external PB solver")
	fs.StringVar(&pbArg, "pbarg", "", "extra arguments passed before the .opb path")
	fs.BoolVar(&verbose, "verbose", false, "print LP snapshots and per-iteration diagnostics")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: fplsol -i <input file> [options]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected argument %q\n", fs.Arg(0))
		return 1
	}
	if input == "" {
		fmt.Fprintln(os.Stderr, "Error: input file not provided, use -i <file>")
		return 1
	}

	fmt.Printf("c solving %s\n", input)
	formulas, err := formula.ParseFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	s := solver.New(formulas, input, verbose)
	switch {
	case builtinPB:
		s.UseBuiltinPB()
	default:
		s.SetPBOptions(!noPB, pbSolver, pbArg)
	}

	sat, err := s.Solve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if sat {
		return 0
	}
	return 2
}
