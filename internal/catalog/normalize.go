package catalog

import "sort"

// Sentinels baked into the snapshot format. Changing them would make every
// persisted section look changed on the next cycle.
const (
	NoBackground   = "No Background"
	UnknownContext = "Unknown"
	UnknownValue   = "N/A"
)

// Normalize derives the canonical comparison record from a raw section.
// It is pure and deterministic: contexts come out deduplicated and sorted,
// release dates sorted with empty entries dropped (duplicates retained).
func Normalize(s RawSection) NormalizedSection {
	md := s.Metadata

	name := s.DisplayName
	if name == "" {
		name = UnknownValue
	}

	var category *string
	if s.Category != "" {
		c := s.Category
		category = &c
	}

	background := md.Background.CustomTexture
	if background == "" {
		background = NoBackground
	}

	billboards := 0
	for _, g := range md.OfferGroups {
		if g.DisplayType == "billboard" {
			billboards++
		}
	}

	seen := make(map[string]struct{}, len(md.StackRanks))
	contexts := make([]string, 0, len(md.StackRanks))
	dates := make([]string, 0, len(md.StackRanks))
	for _, r := range md.StackRanks {
		c := r.Context
		if c == "" {
			c = UnknownContext
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			contexts = append(contexts, c)
		}
		if r.StartDate != "" {
			dates = append(dates, r.StartDate)
		}
	}
	sort.Strings(contexts)
	// ISO-8601 date strings sort correctly lexicographically.
	sort.Strings(dates)

	return NormalizedSection{
		DisplayName:   name,
		Category:      category,
		BackgroundURL: background,
		GroupCount:    len(md.OfferGroups),
		Billboard:     billboards,
		Contexts:      contexts,
		ReleaseDates:  dates,
	}
}

// ID returns the stable key a section is tracked under.
func (s RawSection) ID() string {
	if s.SectionID == "" {
		return UnknownValue
	}
	return s.SectionID
}
