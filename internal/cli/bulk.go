package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/studentdb/internal/bulk"
)

func newImportCmd(flags *rootFlags) *cobra.Command {
	var sample bool

	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Import students from a CSV file",
		Long: `Import students from a CSV file with Name, Age and Grade columns.
Rows that fail are listed and skipped; the rest are added.
Use --sample to import the built-in sample file instead, or
'-' to read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader
			switch {
			case sample:
				var buf bytes.Buffer
				if err := bulk.WriteSample(&buf); err != nil {
					return err
				}
				src = &buf
			case len(args) == 0:
				return fmt.Errorf("a CSV file is required (or pass --sample)")
			case args[0] == "-":
				src = cmd.InOrStdin()
			default:
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				src = f
			}

			return withApp(cmd, flags, func(a *app) error {
				report, err := bulk.Import(cmd.Context(), src, a.store, nil)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, re := range report.Errors {
					fmt.Fprintf(out, "line %d (%s): %s\n", re.Line, re.Name, re.Err)
				}
				fmt.Fprintf(out, "Imported %d students, %d failed\n", report.Added, report.Failed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", false, "import the built-in sample students")
	return cmd
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all students as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				if output == "" || output == "-" {
					_, err := bulk.Export(cmd.Context(), cmd.OutOrStdout(), a.store)
					return err
				}

				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				n, err := bulk.Export(cmd.Context(), f, a.store)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d students to %s\n", n, output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}
