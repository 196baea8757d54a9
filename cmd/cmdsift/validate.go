package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmdsift/cmdsift/pkg/schema"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate DIR",
		Short: "Validate schema documents in a directory",
		Long: `Validate every command schema document in a directory.

This command checks:
  - JSON syntax of each *.json document
  - Required fields and contract version
  - Flag, argument, and subcommand structure`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			paths, err := schemaDocuments(args[0])
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no schema documents found in %s", args[0])
			}

			fmt.Printf("Validating %d schema document(s)...\n", len(paths))

			var failed int
			for _, path := range paths {
				s, err := loadSchemaDocument(path)
				if err != nil {
					failed++
					fmt.Printf("✗ %s: %v\n", filepath.Base(path), err)
					continue
				}

				if errs := schema.ValidateSchema(s); len(errs) > 0 {
					failed++
					fmt.Printf("✗ %s: %d problem(s)\n", filepath.Base(path), len(errs))
					for _, verr := range errs {
						fmt.Printf("    - %s\n", verr.Error())
					}
					continue
				}

				if verbose {
					fmt.Printf("✓ %s (%s)\n", filepath.Base(path), s.Command)
				}
			}

			if failed > 0 {
				return &exitError{code: 2, err: fmt.Errorf("%d of %d document(s) failed validation", failed, len(paths))}
			}

			fmt.Printf("✓ All %d document(s) are valid\n", len(paths))
			return nil
		},
	}

	return cmd
}

// schemaDocuments lists the *.json schema files in dir, skipping the
// extraction report the extract command writes next to them.
func schemaDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		if strings.HasPrefix(name, "extraction-report.") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

func loadSchemaDocument(path string) (*schema.CommandSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var s schema.CommandSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &s, nil
}
