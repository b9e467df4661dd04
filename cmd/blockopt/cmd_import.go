package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blockopt/internal/block"
	"blockopt/internal/ingest"
)

var importRemote bool

// importCmd ingests a block spreadsheet
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import blocks from a spreadsheet",
	Long: `Parse a block spreadsheet (.xlsx, .xlsm, .csv, .tsv) into the
working record set.

Importing replaces the previous record set entirely, along with any
selection made over it. Rows without an identifying mark are dropped; the
header row is located by its MARK label and need not be the first row.

With --remote the file is uploaded and the service's parser is used
instead of the local one.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importRemote, "remote", false, "parse on the service via /api/upload")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var records []block.Block
	if importRemote {
		records, err = apiClient.Upload(cmd.Context(), path, f)
	} else {
		records, err = ingest.Parse(f, path)
	}
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			return fmt.Errorf("%s is not a supported format; use .xlsx, .xlsm, .csv, or .tsv", path)
		case errors.Is(err, ingest.ErrEmptyDocument):
			return fmt.Errorf("%s has no data rows", path)
		case errors.Is(err, ingest.ErrNoValidRows):
			return fmt.Errorf("%s contains no rows with an identifying mark", path)
		}
		return err
	}

	set := block.NewSet()
	duplicates := set.Replace(records)
	for _, id := range duplicates {
		fmt.Fprintf(os.Stderr, "warning: duplicate mark %q; selection will address its first occurrence\n", id)
	}

	if err := block.SaveSet(blocksPath, records); err != nil {
		return err
	}
	logger.Debug("imported record set",
		zap.String("file", path), zap.Int("count", len(records)))

	fmt.Printf("Imported %d blocks from %s\n\n", len(records), path)
	printBlocks(set)
	return nil
}

func printBlocks(set *block.Set) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tA(W1)\tB(W2)\tD(length)\tThickness\tα\tNos\tUW-(Kg)")
	for i, b := range set.Records() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			block.Identity(b, i),
			orNA(b.WidthA), orNA(b.WidthB), orNA(b.Length),
			orNA(b.Thickness), orNA(b.Alpha), orNA(b.Count), orNA(b.UnitWeight))
	}
	w.Flush()
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
