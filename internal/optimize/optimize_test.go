package optimize

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blockopt/internal/block"
	"blockopt/internal/ingest"
)

func TestParseStockDescriptor(t *testing.T) {
	tests := []struct {
		in   string
		want Stock
	}{
		{"500×500×2000", Stock{Width: 500, Height: 500, Length: 2000}},
		{"800×400×2000", Stock{Width: 800, Height: 400, Length: 2000}},
		{"500x500x2000", Stock{Width: 500, Height: 500, Length: 2000}},
		{"500 × 500 × 2000", Stock{Width: 500, Height: 500, Length: 2000}},
		{"500X400X2000", Stock{Width: 500, Height: 400, Length: 2000}},
	}
	for _, tt := range tests {
		got, err := ParseStockDescriptor(tt.in)
		if err != nil {
			t.Errorf("ParseStockDescriptor(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStockDescriptor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseStockDescriptorRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		"abc×500×2000",
		"500×500",
		"500×500×2000×10",
		"",
		"0×500×2000",
		"-500×500×2000",
		"500×500×20.5",
	} {
		if _, err := ParseStockDescriptor(in); !errors.Is(err, ErrInvalidStockDescriptor) {
			t.Errorf("ParseStockDescriptor(%q) err = %v, want ErrInvalidStockDescriptor", in, err)
		}
	}
}

func TestBuildRequest(t *testing.T) {
	records := []block.Block{
		{Mark: "G14", WidthA: "100", WidthB: "90", Length: "2000", Thickness: "12", Alpha: "30"},
		{Mark: "G15", WidthA: "80", WidthB: "70", Length: "1500", Thickness: "10", Alpha: "25"},
		{Mark: "G16", WidthA: "60", WidthB: "50", Length: "1200", Thickness: "8", Alpha: "20"},
	}

	req, err := BuildRequest(records, []string{"G14", "G16"}, "500×500×2000", 0)
	if err != nil {
		t.Fatal(err)
	}

	want := Request{
		StockDimensions: Stock{Width: 500, Height: 500, Length: 2000},
		Parts: []Part{
			{Name: "G14", W1: 100, W2: 90, D: 2000, Thickness: 12, Alpha: 30},
			{Name: "G16", W1: 60, W2: 50, D: 1200, Thickness: 8, Alpha: 20},
		},
		ConfigParams: map[string]any{},
		TopN:         DefaultTopN,
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRequestCoercionDefaultsToZero(t *testing.T) {
	records := []block.Block{
		{Mark: "G14", WidthA: "not-a-number", WidthB: "", Length: "2000"},
	}

	req, err := BuildRequest(records, []string{"G14"}, "500×500×2000", 1)
	if err != nil {
		t.Fatal(err)
	}
	part := req.Parts[0]
	if part.W1 != 0 {
		t.Errorf("malformed W1 must coerce to 0, got %v", part.W1)
	}
	if part.W2 != 0 {
		t.Errorf("missing W2 must coerce to 0, got %v", part.W2)
	}
	if part.D != 2000 {
		t.Errorf("D = %v, want 2000", part.D)
	}
	if part.Thickness != 0 || part.Alpha != 0 {
		t.Errorf("absent attributes must coerce to 0: %+v", part)
	}
}

func TestBuildRequestPositionalIdentity(t *testing.T) {
	// An unmarked record is addressable by its positional fallback identity.
	records := []block.Block{
		{Mark: "G14", WidthA: "100"},
		{WidthA: "50"},
	}

	req, err := BuildRequest(records, []string{"Block-2"}, "500×500×2000", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Parts) != 1 || req.Parts[0].Name != "Block-2" {
		t.Fatalf("parts = %+v, want single Block-2", req.Parts)
	}
}

func TestBuildRequestUnknownIdentity(t *testing.T) {
	records := []block.Block{{Mark: "G14"}}
	_, err := BuildRequest(records, []string{"G14", "G99"}, "500×500×2000", 1)
	if !errors.Is(err, block.ErrUnknownIdentity) {
		t.Fatalf("err = %v, want ErrUnknownIdentity", err)
	}
	if !strings.Contains(err.Error(), "G99") {
		t.Errorf("error should name the missing identity: %v", err)
	}
}

func TestBuildRequestDuplicateMarkUsesFirstOccurrence(t *testing.T) {
	records := []block.Block{
		{Mark: "G14", WidthA: "100"},
		{Mark: "G14", WidthA: "999"},
	}

	req, err := BuildRequest(records, []string{"G14"}, "500×500×2000", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Parts) != 1 {
		t.Fatalf("parts = %+v, want exactly one", req.Parts)
	}
	if req.Parts[0].W1 != 100 {
		t.Errorf("duplicate mark must resolve to the first occurrence, got W1=%v", req.Parts[0].W1)
	}
}

func TestBuildRequestInvalidDescriptor(t *testing.T) {
	_, err := BuildRequest(nil, nil, "abc×500×2000", 1)
	if !errors.Is(err, ErrInvalidStockDescriptor) {
		t.Fatalf("err = %v, want ErrInvalidStockDescriptor", err)
	}
}

func TestImportSelectBuildFlow(t *testing.T) {
	// End to end over the pure layers: three rows, one without a mark, ingest
	// to two records, select both, build the request.
	csv := "MARK,A(W1),B(W2),C(angle),D(length),Thickness,α\n" +
		"G14,100,90,45,2000,12,30\n" +
		",50,40,10,900,5,0\n" +
		"G15,80,70,30,1500,10,25\n"

	records, err := ingest.Parse(strings.NewReader(csv), "blocks.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	set := block.NewSet()
	set.Replace(records)
	set.SelectAll()

	req, err := BuildRequest(set.Records(), set.Selected(), "800×400×2000", 3)
	if err != nil {
		t.Fatal(err)
	}

	if want := (Stock{Width: 800, Height: 400, Length: 2000}); req.StockDimensions != want {
		t.Errorf("stock = %+v, want %+v", req.StockDimensions, want)
	}
	var names []string
	for _, p := range req.Parts {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"G14", "G15"}, names); diff != "" {
		t.Errorf("part names mismatch (-want +got):\n%s", diff)
	}
}
