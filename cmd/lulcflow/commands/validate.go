package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
)

// Exit codes of the validate command.
const (
	exitInvalid   = 1
	exitMalformed = 2
)

// ErrInvalidDocuments is returned when at least one document fails the schema.
var ErrInvalidDocuments = errors.New("invalid documents")

// fileReport is the validation result of one file.
type fileReport struct {
	Path string `json:"path"`
	source.SchemaReport
}

// NewValidateCommand creates the document validation command.
func NewValidateCommand(global *GlobalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check GeoJSON documents against the FeatureCollection schema",
		Long: `Check transition or snapshot documents against the FeatureCollection schema.

Use "-" to read a document from stdin. Exits 1 when a document is invalid
and 2 when it is not JSON at all.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := make([]fileReport, 0, len(args))

			for _, path := range args {
				doc, err := readDocument(cmd, path)
				if err != nil {
					return err
				}

				rep, err := source.Check(doc)
				if err != nil {
					return &ExitError{Code: exitMalformed, Err: fmt.Errorf("%s: %w", path, err)}
				}

				reports = append(reports, fileReport{Path: path, SchemaReport: rep})
			}

			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				err := enc.Encode(reports)
				if err != nil {
					return err
				}
			} else {
				printReports(out, reports, global.NoColor)
			}

			invalid := 0

			for _, rep := range reports {
				if !rep.Valid {
					invalid++
				}
			}

			if invalid > 0 {
				return &ExitError{Code: exitInvalid, Err: fmt.Errorf("%w: %d of %d", ErrInvalidDocuments, invalid, len(reports))}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reports as JSON")

	return cmd
}

func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		doc, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return doc, nil
	}

	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return doc, nil
}

func printReports(w io.Writer, reports []fileReport, noColor bool) {
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	dim := color.New(color.FgHiBlack)

	if noColor {
		ok.DisableColor()
		bad.DisableColor()
		dim.DisableColor()
	}

	for _, rep := range reports {
		if rep.Valid {
			fmt.Fprintf(w, "%s %s\n", ok.Sprint("OK  "), rep.Path)

			continue
		}

		fmt.Fprintf(w, "%s %s\n", bad.Sprint("FAIL"), rep.Path)

		for _, issue := range rep.Issues {
			fmt.Fprintf(w, "     %s\n", dim.Sprint(issue.String()))
		}
	}
}
