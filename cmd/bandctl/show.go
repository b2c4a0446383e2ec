package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/borellim/bandkit/internal/archive"
)

// runShow prints a single node, including array shapes for band nodes.
func runShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dbPath := fs.String("db", "bandkit.db", "Path to archive database")
	id := fs.String("uuid", "", "UUID of the node to show (required)")
	fs.Parse(args)

	if *id == "" {
		log.Fatal("Usage: bandctl show -uuid <uuid> [-db path]")
	}

	a, err := archive.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer a.Close()

	rec, err := a.Nodes().Get(*id)
	if err != nil {
		log.Fatalf("Failed to load node %s: %v", *id, err)
	}

	fmt.Printf("UUID:        %s\n", rec.UUID)
	fmt.Printf("Type:        %s\n", rec.NodeType)
	fmt.Printf("Label:       %s\n", rec.Label)
	if rec.Description != "" {
		fmt.Printf("Description: %s\n", rec.Description)
	}
	fmt.Printf("User:        %s\n", rec.UserEmail)
	if rec.Computer != "" {
		fmt.Printf("Computer:    %s\n", rec.Computer)
	}
	fmt.Printf("Created:     %s\n", time.Unix(rec.CreatedAt, 0).UTC().Format(time.RFC3339))
	fmt.Printf("Updated:     %s\n", time.Unix(rec.UpdatedAt, 0).UTC().Format(time.RFC3339))

	if rec.NodeType != archive.NodeTypeBands {
		return
	}

	bs, _, err := a.Nodes().LoadBands(*id)
	if err != nil {
		log.Fatalf("Failed to load band data: %v", err)
	}
	fmt.Printf("Bands:       shape %v (%d spin(s), %d band(s), %d k-point(s))\n",
		bs.Bands().Shape(), bs.NumSpins(), bs.NumBands(), bs.NumKpoints())
	fmt.Printf("Units:       %s\n", bs.Units())
	if occ, ok := bs.Occupations(); ok {
		fmt.Printf("Occupations: shape %v\n", occ.Shape())
	}
	if labels := bs.Labels(); len(labels) > 0 {
		parts := make([]string, len(labels))
		for i, l := range labels {
			parts[i] = fmt.Sprintf("%s@%d", l.Name, l.Index)
		}
		fmt.Printf("Path:        %s\n", strings.Join(parts, " "))
	}
}
