// Command novadump compiles a source file and pretty-prints its
// compiled Chunk — instructions, constant pool, and intern table — for
// debugging. Never required by any interpreter operation, purely a
// developer convenience, grounded on rmay-nuxvm/cmd/luxc's
// compile-and-persist tool and examples/examples.go's hand-rolled
// bytecode dumps, but using a real pretty-printer instead.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alecthomas/repr"

	"github.com/leonidas1712/nova/internal/compiler"
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: novadump <file.nova>")
		os.Exit(1)
	}

	path := flag.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	chunk, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== %s ===\n", path)
	fmt.Println(repr.String(chunk, repr.Indent("  ")))
}
