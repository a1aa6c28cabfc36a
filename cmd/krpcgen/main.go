// Command krpcgen turns a kRPC service catalogue (the JSON service
// definitions the server ships alongside its protobuf schema) into
// generated Go client packages, one per service.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iancoleman/strcase"
	"github.com/spf13/cobra"

	"github.com/kladd/krpc-client/internal/krpcgen"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "krpcgen",
		Short: "Generate Go service clients from a kRPC service catalogue",
	}
	root.AddCommand(newGenerateCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	var catalogueDir, outDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one Go package per service in the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := krpcgen.LoadCatalogue(catalogueDir)
			if err != nil {
				return err
			}
			if len(services) == 0 {
				return fmt.Errorf("krpcgen: no services found in %s", catalogueDir)
			}
			for name, def := range services {
				f := krpcgen.GenerateService(name, def)
				pkgDir := filepath.Join(outDir, pkgDirName(name))
				if err := os.MkdirAll(pkgDir, 0o755); err != nil {
					return fmt.Errorf("krpcgen: create %s: %w", pkgDir, err)
				}
				outPath := filepath.Join(pkgDir, pkgDirName(name)+".go")
				if err := f.Save(outPath); err != nil {
					return fmt.Errorf("krpcgen: write %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogueDir, "catalogue", "", "directory of *.json service catalogue files")
	cmd.Flags().StringVar(&outDir, "out", "generated", "directory to write generated packages into")
	cmd.MarkFlagRequired("catalogue")

	return cmd
}

func pkgDirName(serviceName string) string {
	return strcase.ToSnake(serviceName)
}
