package batch

import (
	"sort"
	"sync"
)

// SelectionSets holds the four independent selections over the SKU
// universe: enrichment, the two bulk-edit targets, and per-SKU image
// selections. Membership is independent across sets.
//
// SelectAll* has toggle semantics against the universe the caller passes:
// when every universe member is already selected those members are cleared,
// otherwise they are all added. The UI passes the filtered visible universe
// everywhere, so all panels behave the same way.
type SelectionSets struct {
	mu          sync.Mutex
	enrichment  map[string]struct{}
	detailsEdit map[string]struct{}
	listingEdit map[string]struct{}
	images      map[string]map[string]struct{}
}

func NewSelectionSets() *SelectionSets {
	return &SelectionSets{
		enrichment:  make(map[string]struct{}),
		detailsEdit: make(map[string]struct{}),
		listingEdit: make(map[string]struct{}),
		images:      make(map[string]map[string]struct{}),
	}
}

// ---------- enrichment ----------

func (s *SelectionSets) ToggleEnrichment(sku string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.enrichment, sku)
}

func (s *SelectionSets) SelectAllEnrichment(universe []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selectAll(s.enrichment, universe)
}

func (s *SelectionSets) ClearEnrichment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrichment = make(map[string]struct{})
}

func (s *SelectionSets) IsEnrichmentSelected(sku string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.enrichment[sku]
	return ok
}

func (s *SelectionSets) EnrichmentSelected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.enrichment)
}

// ---------- details bulk edit ----------

func (s *SelectionSets) ToggleDetailsEdit(sku string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.detailsEdit, sku)
}

func (s *SelectionSets) SelectAllDetailsEdit(universe []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selectAll(s.detailsEdit, universe)
}

func (s *SelectionSets) ClearDetailsEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailsEdit = make(map[string]struct{})
}

func (s *SelectionSets) IsDetailsEditSelected(sku string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.detailsEdit[sku]
	return ok
}

func (s *SelectionSets) DetailsEditSelected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.detailsEdit)
}

// ---------- listing bulk edit ----------

func (s *SelectionSets) ToggleListingEdit(sku string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.listingEdit, sku)
}

func (s *SelectionSets) SelectAllListingEdit(universe []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selectAll(s.listingEdit, universe)
}

func (s *SelectionSets) ClearListingEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listingEdit = make(map[string]struct{})
}

func (s *SelectionSets) IsListingEditSelected(sku string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.listingEdit[sku]
	return ok
}

func (s *SelectionSets) ListingEditSelected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.listingEdit)
}

// ---------- per-SKU image selection ----------

func (s *SelectionSets) ToggleImage(sku, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.images[sku]
	if !ok {
		set = make(map[string]struct{})
		s.images[sku] = set
	}
	toggle(set, filename)
	if len(set) == 0 {
		delete(s.images, sku)
	}
}

// SelectAllImages toggles the given filenames of one SKU, same semantics as
// the SKU-level select-all.
func (s *SelectionSets) SelectAllImages(sku string, filenames []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.images[sku]
	if !ok {
		set = make(map[string]struct{})
		s.images[sku] = set
	}
	selectAll(set, filenames)
	if len(set) == 0 {
		delete(s.images, sku)
	}
}

func (s *SelectionSets) ClearImages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = make(map[string]map[string]struct{})
}

func (s *SelectionSets) IsImageSelected(sku, filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.images[sku][filename]
	return ok
}

func (s *SelectionSets) SelectedImages(sku string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.images[sku])
}

// TotalImages recomputes the aggregate over all per-SKU image selections on
// every call; the count is never cached.
func (s *SelectionSets) TotalImages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, set := range s.images {
		n += len(set)
	}
	return n
}

// ---------- helpers ----------

func toggle(set map[string]struct{}, key string) {
	if _, ok := set[key]; ok {
		delete(set, key)
	} else {
		set[key] = struct{}{}
	}
}

func selectAll(set map[string]struct{}, universe []string) {
	all := len(universe) > 0
	for _, k := range universe {
		if _, ok := set[k]; !ok {
			all = false
			break
		}
	}
	if all {
		for _, k := range universe {
			delete(set, k)
		}
		return
	}
	for _, k := range universe {
		set[k] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
