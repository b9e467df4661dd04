// Package optimize builds the downstream optimization request from selected
// records and a stock descriptor, and defines the wire types of the
// configurations endpoint.
package optimize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"blockopt/internal/block"
)

// DefaultTopN is the fixed requested-result count when the caller does not
// override it.
const DefaultTopN = 3

// ErrInvalidStockDescriptor means the operator-chosen stock string did not
// parse to three positive integers. This is a contract violation the builder
// rejects; it never silently defaults stock dimensions.
var ErrInvalidStockDescriptor = errors.New("optimize: invalid stock descriptor")

// Stock is the parsed raw-material dimension triple.
type Stock struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Length int `json:"length"`
}

// Part is one request item: a record's identity plus its coerced numeric
// attributes.
type Part struct {
	Name      string  `json:"name"`
	W1        float64 `json:"W1"`
	W2        float64 `json:"W2"`
	D         float64 `json:"D"`
	Thickness float64 `json:"thickness"`
	Alpha     float64 `json:"alpha"`
}

// Request is the payload of POST /api/configurations/top3/.
type Request struct {
	StockDimensions Stock          `json:"stock_dimensions"`
	Parts           []Part         `json:"parts"`
	ConfigParams    map[string]any `json:"config_params"`
	TopN            int            `json:"top_n"`
}

// Configuration is one ranked result returned by the service.
type Configuration struct {
	Rank              int            `json:"rank"`
	Efficiency        float64        `json:"efficiency"`
	Waste             float64        `json:"waste"`
	Description       string         `json:"description"`
	TotalParts        int            `json:"total_parts"`
	PartsBreakdown    map[string]int `json:"parts_breakdown"`
	PrimaryPart       string         `json:"primary_part"`
	MergingPlaneOrder []string       `json:"merging_plane_order"`
	VisualizationFile string         `json:"visualization_file"`
}

// Response is the body of a successful optimization call.
type Response struct {
	Configurations []Configuration `json:"configurations"`
}

// ParseStockDescriptor parses an operator-chosen "W×H×L" string. The
// canonical delimiter is the multiplication sign the source dropdown uses;
// plain x/X are accepted as keyboard-friendly equivalents.
func ParseStockDescriptor(s string) (Stock, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '×' || r == 'x' || r == 'X'
	})
	if len(fields) != 3 {
		return Stock{}, fmt.Errorf("%w: %q is not of the form W×H×L", ErrInvalidStockDescriptor, s)
	}

	dims := make([]int, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n <= 0 {
			return Stock{}, fmt.Errorf("%w: %q is not a positive integer", ErrInvalidStockDescriptor, f)
		}
		dims[i] = n
	}
	return Stock{Width: dims[0], Height: dims[1], Length: dims[2]}, nil
}

// BuildRequest maps the selected records plus a stock descriptor into the
// request payload. It is pure and performs no I/O.
//
// Numeric attributes are coerced independently: a missing or malformed cell
// becomes 0 rather than blocking submission. Selection is resolved against
// identities derived the same way everywhere (block.Identity over the full
// ingested set), so a positional fallback identity addresses the same record
// here as it did at selection time.
func BuildRequest(records []block.Block, selected []string, stockDescriptor string, topN int) (Request, error) {
	stock, err := ParseStockDescriptor(stockDescriptor)
	if err != nil {
		return Request{}, err
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}

	parts := make([]Part, 0, len(selected))
	for i, b := range records {
		id := block.Identity(b, i)
		if !want[id] {
			continue
		}
		delete(want, id) // duplicate marks resolve to their first occurrence
		parts = append(parts, Part{
			Name:      id,
			W1:        coerce(b.WidthA),
			W2:        coerce(b.WidthB),
			D:         coerce(b.Length),
			Thickness: coerce(b.Thickness),
			Alpha:     coerce(b.Alpha),
		})
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for id := range want {
			missing = append(missing, id)
		}
		return Request{}, fmt.Errorf("%w: %s", block.ErrUnknownIdentity, strings.Join(missing, ", "))
	}

	return Request{
		StockDimensions: stock,
		Parts:           parts,
		ConfigParams:    map[string]any{},
		TopN:            topN,
	}, nil
}

// coerce turns a raw cell into a number, defaulting to 0 on absence or parse
// failure. Display keeps the raw value; computation gets the default.
func coerce(raw string) float64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n
}
