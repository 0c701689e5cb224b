package catalog

// Wire types for the remote content API. Only the fields the watcher compares
// are declared; everything else in the payload is ignored by the decoder.

type shopPayload struct {
	ShopData shopData `json:"shopData"`
}

type shopData struct {
	Sections []RawSection `json:"sections"`
}

// RawSection is one catalog section exactly as the API returns it.
type RawSection struct {
	SectionID   string   `json:"sectionID"`
	DisplayName string   `json:"displayName"`
	Category    string   `json:"category,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type Metadata struct {
	Background  Background   `json:"background"`
	OfferGroups []OfferGroup `json:"offerGroups"`
	StackRanks  []StackRank  `json:"stackRanks"`
}

type Background struct {
	CustomTexture string `json:"customTexture"`
}

// OfferGroup is a sub-grouping of items within a section, tagged with a
// display style such as "billboard".
type OfferGroup struct {
	DisplayType string `json:"displayType"`
}

// StackRank is a per-item ranking record with a context label and an
// optional start date.
type StackRank struct {
	Context   string `json:"context"`
	StartDate string `json:"startDate"`
}

// NormalizedSection is the canonical comparison record derived from a
// RawSection. JSON field names match the historical snapshot file format.
type NormalizedSection struct {
	DisplayName   string   `json:"display_name"`
	Category      *string  `json:"category"`
	BackgroundURL string   `json:"background_url"`
	GroupCount    int      `json:"group_count"`
	Billboard     int      `json:"billboard"`
	Contexts      []string `json:"contexts"`
	ReleaseDates  []string `json:"release_dates"`
}

// Snapshot maps section ID to its last-known normalized state. It is the
// system's only durable state and is replaced in full, never patched.
type Snapshot map[string]NormalizedSection
