// Command bandctl manages a bandkit band structure archive from the
// command line: importing and exporting documents, band gap analysis,
// and database schema migrations.
package main

import (
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/borellim/bandkit/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import":
		runImport(args)
	case "export":
		runExport(args)
	case "gap":
		runGap(args)
	case "list":
		runList(args)
	case "show":
		runShow(args)
	case "gen":
		runGen(args)
	case "migrate":
		runMigrate(args)
	case "version", "-version", "--version":
		fmt.Println(version.String())
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("bandctl - manage a bandkit band structure archive")
	fmt.Println()
	fmt.Println("Usage: bandctl <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  import     Import band structure documents into the archive")
	fmt.Println("  export     Export a stored band structure to a file")
	fmt.Println("  gap        Analyse the band gap of a stored band structure")
	fmt.Println("  list       List nodes in the archive")
	fmt.Println("  show       Show a single node in detail")
	fmt.Println("  gen        Generate a synthetic band structure document")
	fmt.Println("  migrate    Manage the database schema")
	fmt.Println("  version    Print version information")
	fmt.Println()
	fmt.Println("Run 'bandctl <command> -h' for the options of a command.")
}
