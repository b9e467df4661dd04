package block

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/natefinch/atomic"
)

// cell tolerates the three shapes a spreadsheet-derived JSON value shows up
// as: string, number, or null. Everything lands as display text.
type cell string

func (c *cell) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = cell(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("block: cell is neither string, number, nor null: %s", data)
	}
	*c = cell(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// blockJSON is the wire/persisted shape of one record, keyed by the original
// column labels so files stay readable next to the source spreadsheet and the
// upload endpoint's response decodes directly.
type blockJSON struct {
	Mark        cell `json:"MARK"`
	WidthA      cell `json:"A(W1),omitempty"`
	WidthB      cell `json:"B(W2),omitempty"`
	Angle       cell `json:"C(angle),omitempty"`
	Length      cell `json:"D(length),omitempty"`
	Thickness   cell `json:"Thickness,omitempty"`
	Alpha       cell `json:"α,omitempty"`
	Volume      cell `json:"Volume,omitempty"`
	AD          cell `json:"AD,omitempty"`
	UnitWeight  cell `json:"UW-(Kg),omitempty"`
	Count       cell `json:"Nos,omitempty"`
	TotalVolume cell `json:"TOT V,omitempty"`
	TotalWeight cell `json:"TOT KG,omitempty"`
}

func toJSON(b Block) blockJSON {
	return blockJSON{
		Mark: cell(b.Mark), WidthA: cell(b.WidthA), WidthB: cell(b.WidthB),
		Angle: cell(b.Angle), Length: cell(b.Length), Thickness: cell(b.Thickness),
		Alpha: cell(b.Alpha), Volume: cell(b.Volume), AD: cell(b.AD),
		UnitWeight: cell(b.UnitWeight), Count: cell(b.Count),
		TotalVolume: cell(b.TotalVolume), TotalWeight: cell(b.TotalWeight),
	}
}

func fromJSON(j blockJSON) Block {
	return Block{
		Mark: string(j.Mark), WidthA: string(j.WidthA), WidthB: string(j.WidthB),
		Angle: string(j.Angle), Length: string(j.Length), Thickness: string(j.Thickness),
		Alpha: string(j.Alpha), Volume: string(j.Volume), AD: string(j.AD),
		UnitWeight: string(j.UnitWeight), Count: string(j.Count),
		TotalVolume: string(j.TotalVolume), TotalWeight: string(j.TotalWeight),
	}
}

// MarshalRecords encodes records as an array of column-label keyed objects.
func MarshalRecords(records []Block) ([]byte, error) {
	out := make([]blockJSON, len(records))
	for i, b := range records {
		out[i] = toJSON(b)
	}
	return json.MarshalIndent(out, "", "  ")
}

// UnmarshalRecords decodes an array of column-label keyed objects, as
// produced by MarshalRecords or returned by the upload endpoint.
func UnmarshalRecords(data []byte) ([]Block, error) {
	var raw []blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("block: decode records: %w", err)
	}
	records := make([]Block, len(raw))
	for i, j := range raw {
		records[i] = fromJSON(j)
	}
	return records, nil
}

// SaveSet persists an ingested record set so a later process can act on it.
// The file is replaced wholesale and atomically, never merged, preserving the
// import-replaces-everything semantics of the in-memory Set.
func SaveSet(path string, records []Block) error {
	data, err := MarshalRecords(records)
	if err != nil {
		return fmt.Errorf("block: encode set: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("block: create data dir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("block: write set: %w", err)
	}
	return nil
}

// LoadSet reads a previously saved record set. A missing file yields an
// empty set with no error.
func LoadSet(path string) ([]Block, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("block: read set: %w", err)
	}
	return UnmarshalRecords(data)
}
