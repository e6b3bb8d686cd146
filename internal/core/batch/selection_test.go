package batch

import (
	"reflect"
	"testing"
)

func TestToggleMembership(t *testing.T) {
	s := NewSelectionSets()
	s.ToggleEnrichment("A1")
	if !s.IsEnrichmentSelected("A1") {
		t.Fatal("toggle on failed")
	}
	s.ToggleEnrichment("A1")
	if s.IsEnrichmentSelected("A1") {
		t.Fatal("toggle off failed")
	}
}

func TestSetsAreIndependent(t *testing.T) {
	s := NewSelectionSets()
	s.ToggleEnrichment("A1")
	s.ToggleDetailsEdit("A1")
	s.ToggleListingEdit("A2")

	if !s.IsEnrichmentSelected("A1") || !s.IsDetailsEditSelected("A1") {
		t.Fatal("A1 must be in both sets")
	}
	if s.IsListingEditSelected("A1") || !s.IsListingEditSelected("A2") {
		t.Fatal("listing set membership wrong")
	}
	s.ClearEnrichment()
	if s.IsEnrichmentSelected("A1") {
		t.Fatal("clear leaked")
	}
	if !s.IsDetailsEditSelected("A1") {
		t.Fatal("clear crossed sets")
	}
}

func TestSelectAllToggles(t *testing.T) {
	s := NewSelectionSets()
	universe := []string{"A1", "A2", "A3"}

	s.SelectAllEnrichment(universe)
	if got := s.EnrichmentSelected(); !reflect.DeepEqual(got, universe) {
		t.Fatalf("select all missed: %v", got)
	}

	// all selected: select-all clears the universe members
	s.SelectAllEnrichment(universe)
	if got := s.EnrichmentSelected(); len(got) != 0 {
		t.Fatalf("second select-all should clear: %v", got)
	}

	// partial selection: select-all completes it
	s.ToggleEnrichment("A2")
	s.SelectAllEnrichment(universe)
	if got := s.EnrichmentSelected(); !reflect.DeepEqual(got, universe) {
		t.Fatalf("select all over partial missed: %v", got)
	}
}

func TestSelectAllOnlyTouchesUniverse(t *testing.T) {
	s := NewSelectionSets()
	s.ToggleEnrichment("Z9") // outside the filtered universe
	universe := []string{"A1", "A2"}
	s.SelectAllEnrichment(universe)
	s.SelectAllEnrichment(universe) // clears A1, A2 only
	if !s.IsEnrichmentSelected("Z9") {
		t.Fatal("selection outside universe must survive")
	}
	if s.IsEnrichmentSelected("A1") {
		t.Fatal("universe member not cleared")
	}
}

func TestImageSelectionPerSku(t *testing.T) {
	s := NewSelectionSets()
	s.ToggleImage("A1", "a.jpg")
	s.ToggleImage("A1", "b.jpg")
	s.ToggleImage("A2", "a.jpg")

	if n := s.TotalImages(); n != 3 {
		t.Fatalf("total = %d, want 3", n)
	}
	s.ToggleImage("A1", "b.jpg")
	if n := s.TotalImages(); n != 2 {
		t.Fatalf("total after toggle-off = %d, want 2", n)
	}
	if got := s.SelectedImages("A1"); !reflect.DeepEqual(got, []string{"a.jpg"}) {
		t.Fatalf("unexpected A1 images: %v", got)
	}
	s.ClearImages()
	if s.TotalImages() != 0 {
		t.Fatal("clear images failed")
	}
}

func TestSelectAllImagesToggle(t *testing.T) {
	s := NewSelectionSets()
	files := []string{"a.jpg", "b.jpg"}
	s.SelectAllImages("A1", files)
	if s.TotalImages() != 2 {
		t.Fatal("select all images missed")
	}
	s.SelectAllImages("A1", files)
	if s.TotalImages() != 0 {
		t.Fatal("select all images should toggle off")
	}
}
