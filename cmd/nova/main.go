// Command nova is the external CLI collaborator: no positional
// argument drops into a REPL over a persistent interpreter; one
// positional argument loads, compiles and runs a file; appending -o
// after the path skips the REPL fallback that otherwise follows a
// successful run. Grounded on rmay-nuxvm/cmd/luxrepl's REPL loop and
// vippsas-sqlcode/cli/cmd's cobra root command shape.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leonidas1712/nova"
	"github.com/leonidas1712/nova/internal/vm"
)

var noShell bool

var rootCmd = &cobra.Command{
	Use:           "nova [path]",
	Short:         "nova",
	Long:          "Nova bytecode interpreter: run a source file, or drop into a REPL with no arguments.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runMain,
}

func init() {
	rootCmd.Flags().BoolVarP(&noShell, "no-shell", "o", false, "after running the file, exit instead of dropping into a REPL")
}

func runMain(cmd *cobra.Command, args []string) error {
	in := nova.New()

	if len(args) == 0 {
		runREPL(in)
		return nil
	}

	path := args[0]
	fmt.Printf("Importing: %s\n\n", path)

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := runSource(in, source); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if !noShell {
		runREPL(in)
	}
	return nil
}

func runSource(in *nova.Interpreter, source []byte) error {
	v, err := in.Run(source)
	if err != nil {
		return err
	}
	if v.Kind != vm.KindUnit {
		fmt.Println(in.RenderValue(v))
	}
	return nil
}

func runREPL(in *nova.Interpreter) {
	fmt.Println("Nova REPL. Type an expression or statement; Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("nova> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		v, err := in.Run([]byte(line))
		if err != nil {
			fmt.Println(err.Error())
			continue
		}
		if v.Kind != vm.KindUnit {
			fmt.Println(in.RenderValue(v))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
