// Package block defines the domain record produced by spreadsheet ingestion
// and the selection state the operator builds over it.
//
// A Block is one validated row of input: an identifying mark plus a fixed set
// of named attributes. Attribute values are kept exactly as they appeared in
// the source cell (display value); numeric coercion happens only when a
// request payload is built, so a malformed cell can still be shown to the
// operator verbatim.
package block

import (
	"fmt"
	"strings"
)

// Column positions of the fixed attribute layout. Rows are mapped
// positionally, never by header text.
const (
	ColMark = iota
	ColWidthA
	ColWidthB
	ColAngle
	ColLength
	ColThickness
	ColAlpha
	ColVolume
	ColAD
	ColUnitWeight
	ColCount
	ColTotalVolume
	ColTotalWeight

	NumColumns
)

// ColumnLabels holds the expected header labels in column order, matching the
// source spreadsheets this system ingests.
var ColumnLabels = [NumColumns]string{
	"MARK", "A(W1)", "B(W2)", "C(angle)", "D(length)",
	"Thickness", "α", "Volume", "AD", "UW-(Kg)",
	"Nos", "TOT V", "TOT KG",
}

// Block is one ingested row. All fields are raw cell text; absent cells are
// empty strings. Blocks are immutable once ingested.
type Block struct {
	Mark        string
	WidthA      string // A(W1)
	WidthB      string // B(W2)
	Angle       string // C(angle)
	Length      string // D(length)
	Thickness   string
	Alpha       string // α
	Volume      string
	AD          string
	UnitWeight  string // UW-(Kg)
	Count       string // Nos
	TotalVolume string // TOT V
	TotalWeight string // TOT KG
}

// FromRow maps a raw row of cells onto a Block by position. Short rows are
// padded with empty attributes; extra cells are ignored.
func FromRow(cells []string) Block {
	cell := func(i int) string {
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	return Block{
		Mark:        cell(ColMark),
		WidthA:      cell(ColWidthA),
		WidthB:      cell(ColWidthB),
		Angle:       cell(ColAngle),
		Length:      cell(ColLength),
		Thickness:   cell(ColThickness),
		Alpha:       cell(ColAlpha),
		Volume:      cell(ColVolume),
		AD:          cell(ColAD),
		UnitWeight:  cell(ColUnitWeight),
		Count:       cell(ColCount),
		TotalVolume: cell(ColTotalVolume),
		TotalWeight: cell(ColTotalWeight),
	}
}

// Identity returns the display key for a block at the given 0-based position
// in its ingested set: the mark if present, otherwise a positional fallback.
// It is a pure function of the block and its index, so every consumer
// (selection, search, request building) derives the same key.
func Identity(b Block, index int) string {
	if b.Mark != "" {
		return b.Mark
	}
	return fmt.Sprintf("Block-%d", index+1)
}
