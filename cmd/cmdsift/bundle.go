package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmdsift/cmdsift/pkg/schema"
)

func newBundleCmd() *cobra.Command {
	var (
		outputPath  string
		packageName string
	)

	cmd := &cobra.Command{
		Use:   "bundle DIR",
		Short: "Assemble validated schemas into a package document",
		Long: `Collect the schema documents in a directory, validate them, and
write a single package document suitable for distribution.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			manager, format := outputManager(cmd, cfg)

			paths, err := schemaDocuments(args[0])
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no schema documents found in %s", args[0])
			}

			pkg := schema.NewPackage(version, time.Now().UTC().Format(time.RFC3339))
			pkg.Name = packageName

			for _, path := range paths {
				s, err := loadSchemaDocument(path)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
				}
				pkg.Schemas = append(pkg.Schemas, *s)
			}

			if errs := schema.ValidatePackage(pkg); len(errs) > 0 {
				for _, verr := range errs {
					fmt.Fprintf(os.Stderr, "  - %s\n", verr.Error())
				}
				return &exitError{code: 2, err: fmt.Errorf("package failed validation with %d problem(s)", len(errs))}
			}

			if outputPath == "" {
				return manager.Format(os.Stdout, pkg, format)
			}

			if err := writeDocument(outputPath, format, pkg); err != nil {
				return err
			}
			fmt.Printf("✓ Bundled %d schema(s) into %s\n", len(pkg.Schemas), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the package document to this file instead of stdout")
	cmd.Flags().StringVar(&packageName, "name", "", "Optional package name")

	return cmd
}
