// Command seedregistry converts a registry spreadsheet into a SQL seed file
// of global reference records. Accepts .xlsx or delimited text input.
// Usage: go run ./cmd/seedregistry <registry-file>
// Output: db/seeds/reference_records.sql
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"veridoc/internal/domain"
	"veridoc/internal/tabular"
	"veridoc/internal/textmatch"
)

const batchSize = 500

type seedEntry struct {
	name    string
	address string
	city    string
	zip     string
	sigURL  string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Println("Usage: seedregistry <registry-file>")
		os.Exit(1)
	}
	inPath := os.Args[1]
	outPath := "db/seeds/reference_records.sql"

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read registry file: %w", err)
	}

	var table *tabular.Table
	if strings.EqualFold(filepath.Ext(inPath), ".xlsx") {
		table, err = tabular.ParseWorkbook(data)
	} else {
		table, err = tabular.ParseDelimited(string(data), ',')
	}
	if err != nil {
		return fmt.Errorf("parse registry file: %w", err)
	}
	table.Canonicalize()

	seen := make(map[string]bool)
	var entries []seedEntry
	for _, row := range table.Rows {
		name := strings.TrimSpace(row.Field(tabular.ColName))
		if name == "" {
			continue
		}
		normalized := textmatch.Normalize(name)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true

		entries = append(entries, seedEntry{
			name:    name,
			address: strings.TrimSpace(row.Field(tabular.ColAddress)),
			city:    strings.TrimSpace(row.Field(tabular.ColCity)),
			zip:     strings.TrimSpace(row.Field(tabular.ColZip)),
			sigURL:  strings.TrimSpace(row.Field("SignatureImageUrl")),
		})
	}
	log.Printf("parsed %d unique records from %s", len(entries), inPath)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	w := func(s string) error { _, werr := fmt.Fprintln(out, s); return werr }

	for _, line := range []string{
		"-- Global reference record seed data generated from a registry spreadsheet.",
		fmt.Sprintf("-- %d records in batches of %d.", len(entries), batchSize),
		"-- Run: make seed-registry",
		"BEGIN;",
		"",
	} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write header: %w", werr)
		}
	}

	for i := 0; i < len(entries); i += batchSize {
		end := i + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := writeBatch(out, entries[i:end]); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}

	for _, line := range []string{"", "COMMIT;"} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write footer: %w", werr)
		}
	}

	log.Printf("Generated %d records (%d batches) in %s",
		len(entries), (len(entries)+batchSize-1)/batchSize, outPath)
	return nil
}

func writeBatch(out *os.File, batch []seedEntry) error {
	if len(batch) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO reference_records (id, name, normalized_name, address, city, zip, signature_ref_url, scope) VALUES\n")

	for i := range batch {
		e := &batch[i]
		if i > 0 {
			b.WriteString(",\n")
		}

		sigVal := "NULL"
		if e.sigURL != "" {
			sigVal = fmt.Sprintf("'%s'", escapeSQL(e.sigURL))
		}

		fmt.Fprintf(&b, "  (gen_random_uuid(), '%s', '%s', '%s', '%s', '%s', %s, '%s')",
			escapeSQL(e.name), escapeSQL(textmatch.Normalize(e.name)),
			escapeSQL(e.address), escapeSQL(e.city), escapeSQL(e.zip),
			sigVal, domain.ScopeGlobal)
	}

	b.WriteString("\nON CONFLICT (normalized_name, scope) WHERE project_id IS NULL AND customer_id IS NULL DO NOTHING;\n")

	_, err := out.WriteString(b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
