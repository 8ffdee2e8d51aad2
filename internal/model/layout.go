package model

// LayoutTree is a store's live aisles and sections in display order.
type LayoutTree struct {
	StoreID string        `json:"store_id"`
	Aisles  []LayoutAisle `json:"aisles"`
}

// LayoutAisle is one aisle of a LayoutTree.
type LayoutAisle struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	SortOrder int             `json:"sort_order"`
	Sections  []LayoutSection `json:"sections"`
}

// LayoutSection is one section of a LayoutAisle.
type LayoutSection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// Aisle returns the aisle with the given id.
func (t LayoutTree) Aisle(id string) (LayoutAisle, bool) {
	for _, a := range t.Aisles {
		if a.ID == id {
			return a, true
		}
	}
	return LayoutAisle{}, false
}

// Section returns the section with the given id and the aisle holding it.
func (t LayoutTree) Section(id string) (LayoutAisle, LayoutSection, bool) {
	for _, a := range t.Aisles {
		for _, s := range a.Sections {
			if s.ID == id {
				return a, s, true
			}
		}
	}
	return LayoutAisle{}, LayoutSection{}, false
}

// Resolve checks a suggestion against the tree and returns the aisle and
// section ids it names. Unknown ids resolve to "" rather than failing:
//   - an unknown aisle discards the whole suggestion
//   - a section outside the resolved aisle is dropped, keeping the aisle
//   - a section alone implies its aisle
func (t LayoutTree) Resolve(s Suggestion) (aisleID, sectionID string) {
	if s.AisleID == "" {
		if s.SectionID == "" {
			return "", ""
		}
		a, sec, ok := t.Section(s.SectionID)
		if !ok {
			return "", ""
		}
		return a.ID, sec.ID
	}

	a, ok := t.Aisle(s.AisleID)
	if !ok {
		return "", ""
	}
	if s.SectionID == "" {
		return a.ID, ""
	}
	for _, sec := range a.Sections {
		if sec.ID == s.SectionID {
			return a.ID, sec.ID
		}
	}
	return a.ID, ""
}
