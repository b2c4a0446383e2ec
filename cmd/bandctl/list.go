package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/borellim/bandkit/internal/archive"
)

// runList prints the newest nodes in the archive as a table.
func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := fs.String("db", "bandkit.db", "Path to archive database")
	nodeType := fs.String("type", "", "Filter by node type (e.g. "+archive.NodeTypeBands+")")
	limit := fs.Int("limit", 0, "Maximum number of nodes to list (default 100)")
	fs.Parse(args)

	a, err := archive.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer a.Close()

	records, err := a.Nodes().List(*nodeType, *limit)
	if err != nil {
		log.Fatalf("Failed to list nodes: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "UUID\tTYPE\tLABEL\tUSER\tCREATED")
	for _, rec := range records {
		created := time.Unix(rec.CreatedAt, 0).UTC().Format("2006-01-02 15:04")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.UUID, rec.NodeType, rec.Label, rec.UserEmail, created)
	}
	w.Flush()
	fmt.Printf("\n%d node(s)\n", len(records))
}
