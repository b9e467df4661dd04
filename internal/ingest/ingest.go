// Package ingest parses semi-structured tabular files into domain records.
//
// Input spreadsheets are messy: the header row is not guaranteed to be the
// first row, stray copies of the header can appear in the middle of the data,
// and trailing columns may be missing. Parsing is anchored on the position of
// the identifying-column header, and rows are mapped to attributes by
// position, never by header text.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"blockopt/internal/block"
)

// SentinelLabel is the identifying-column header. The first row whose first
// cell equals it anchors parsing.
const SentinelLabel = "MARK"

var (
	// ErrUnsupportedFormat means the file extension is not a recognized
	// spreadsheet or delimited-text type.
	ErrUnsupportedFormat = errors.New("ingest: unsupported file format")

	// ErrEmptyDocument means the file decoded to fewer than two physical
	// rows, leaving no possible data row below a header.
	ErrEmptyDocument = errors.New("ingest: document has no data rows")

	// ErrNoValidRows means every row below the header was filtered out.
	ErrNoValidRows = errors.New("ingest: no rows with an identifying mark")
)

// Parse decodes raw file bytes into an ordered record set. The format is
// chosen by the filename extension: .xlsx/.xlsm workbooks (first sheet only),
// or comma/tab delimited text. None of the returned errors are retryable; they
// are reported to the operator for correction.
func Parse(r io.Reader, filename string) ([]block.Block, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		rows, err = workbookRows(r)
	case ".csv":
		rows, err = delimitedRows(r, ',')
	case ".tsv":
		rows, err = delimitedRows(r, '\t')
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return fromGrid(rows)
}

func workbookRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyDocument
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ingest: read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func delimitedRows(r io.Reader, delim rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: read delimited text: %w", err)
	}
	return rows, nil
}

// fromGrid applies the header-anchored row mapping.
//
// The header row is the first row whose first cell equals SentinelLabel. If
// no such row exists the first row is assumed to be the header; that is a
// deliberate lenient fallback for files exported without the canonical
// label. Rows below the header are kept only when their identifying cell is
// non-empty and is not a stray repeat of the header label.
func fromGrid(rows [][]string) ([]block.Block, error) {
	if len(rows) < 2 {
		return nil, ErrEmptyDocument
	}

	headerIdx := 0
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) == SentinelLabel {
			headerIdx = i
			break
		}
	}

	var records []block.Block
	for _, row := range rows[headerIdx+1:] {
		if len(row) == 0 {
			continue
		}
		mark := strings.TrimSpace(row[0])
		if mark == "" || mark == SentinelLabel {
			continue
		}
		records = append(records, block.FromRow(row))
	}
	if len(records) == 0 {
		return nil, ErrNoValidRows
	}
	return records, nil
}
