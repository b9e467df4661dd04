package block

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromRow(t *testing.T) {
	row := []string{"G14", "100", "90", "45", "2000", "12", "30", "0.5", "1.2", "55", "4", "2.0", "220"}
	b := FromRow(row)

	if b.Mark != "G14" {
		t.Errorf("Mark = %q, want G14", b.Mark)
	}
	if b.WidthA != "100" || b.WidthB != "90" {
		t.Errorf("widths = %q/%q, want 100/90", b.WidthA, b.WidthB)
	}
	if b.Length != "2000" {
		t.Errorf("Length = %q, want 2000", b.Length)
	}
	if b.TotalWeight != "220" {
		t.Errorf("TotalWeight = %q, want 220", b.TotalWeight)
	}
}

func TestFromRowShortRow(t *testing.T) {
	b := FromRow([]string{"G15", "80"})
	if b.Mark != "G15" || b.WidthA != "80" {
		t.Fatalf("unexpected mapping: %+v", b)
	}
	if b.WidthB != "" || b.TotalWeight != "" {
		t.Errorf("missing cells should be empty, got %+v", b)
	}
}

func TestIdentity(t *testing.T) {
	marked := Block{Mark: "G14"}
	unmarked := Block{}

	if got := Identity(marked, 0); got != "G14" {
		t.Errorf("Identity(marked, 0) = %q, want G14", got)
	}
	// Positional fallback is 1-based.
	if got := Identity(unmarked, 0); got != "Block-1" {
		t.Errorf("Identity(unmarked, 0) = %q, want Block-1", got)
	}
	if got := Identity(unmarked, 4); got != "Block-5" {
		t.Errorf("Identity(unmarked, 4) = %q, want Block-5", got)
	}
}

func TestIdentityIdempotent(t *testing.T) {
	b := Block{}
	first := Identity(b, 2)
	for i := 0; i < 10; i++ {
		if got := Identity(b, 2); got != first {
			t.Fatalf("Identity not stable: %q then %q", first, got)
		}
	}
	// Two unmarked records at different indices must not collide.
	if Identity(b, 2) == Identity(b, 3) {
		t.Error("unmarked records at different indices share an identity")
	}
}

func TestSetReplaceClearsSelection(t *testing.T) {
	s := NewSet()
	s.Replace([]Block{{Mark: "G14"}, {Mark: "G15"}})
	if err := s.Select("G14"); err != nil {
		t.Fatal(err)
	}

	s.Replace([]Block{{Mark: "G20"}})
	if got := s.Selected(); len(got) != 0 {
		t.Errorf("selection survived a replace: %v", got)
	}
	if s.IsSelected("G14") {
		t.Error("stale identity still selected after replace")
	}
}

func TestSetSelectUnknownIdentity(t *testing.T) {
	s := NewSet()
	s.Replace([]Block{{Mark: "G14"}})
	if err := s.Select("G99"); err == nil {
		t.Fatal("selecting an identity outside the set should fail")
	}
}

func TestSetSelectedOrder(t *testing.T) {
	s := NewSet()
	s.Replace([]Block{{Mark: "G14"}, {Mark: "G15"}, {Mark: "G16"}})
	// Select out of order; Selected returns ingested order.
	for _, id := range []string{"G16", "G14"} {
		if err := s.Select(id); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]string{"G14", "G16"}, s.Selected()); diff != "" {
		t.Errorf("Selected() mismatch (-want +got):\n%s", diff)
	}
}

func TestSetReplaceReportsDuplicates(t *testing.T) {
	s := NewSet()
	dups := s.Replace([]Block{{Mark: "G14"}, {Mark: "G15"}, {Mark: "G14"}, {Mark: "G14"}})
	if diff := cmp.Diff([]string{"G14"}, dups); diff != "" {
		t.Errorf("duplicates mismatch (-want +got):\n%s", diff)
	}

	// Selecting a duplicated identity yields one entry, not three.
	if err := s.Select("G14"); err != nil {
		t.Fatal(err)
	}
	if got := s.Selected(); len(got) != 1 {
		t.Errorf("Selected() = %v, want single G14", got)
	}
}

func TestSetSelectAll(t *testing.T) {
	s := NewSet()
	s.Replace([]Block{{Mark: "G14"}, {}, {Mark: "G16"}})
	s.SelectAll()
	if diff := cmp.Diff([]string{"G14", "Block-2", "G16"}, s.Selected()); diff != "" {
		t.Errorf("Selected() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.json")
	records := []Block{
		{Mark: "G14", WidthA: "100", Alpha: "30", Count: "4"},
		{Mark: "G15", WidthA: "bad-cell", Length: "1500"},
	}
	if err := SaveSet(path, records); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadSet(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(records, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSetMissingFile(t *testing.T) {
	records, err := LoadSet(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if records != nil {
		t.Errorf("missing file should yield empty set, got %v", records)
	}
}

func TestUnmarshalRecordsToleratesNumbersAndNulls(t *testing.T) {
	data := []byte(`[{"MARK":"G14","A(W1)":100.5,"B(W2)":null,"Nos":4}]`)
	records, err := UnmarshalRecords(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	b := records[0]
	if b.WidthA != "100.5" {
		t.Errorf("numeric cell = %q, want 100.5", b.WidthA)
	}
	if b.WidthB != "" {
		t.Errorf("null cell = %q, want empty", b.WidthB)
	}
	if b.Count != "4" {
		t.Errorf("integer cell = %q, want 4", b.Count)
	}
}
