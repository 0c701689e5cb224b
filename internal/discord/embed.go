package discord

import (
	"fmt"
	"strings"
	"time"

	"shopwatch/internal/catalog"
)

// Embed is the message payload the webhook endpoint renders.
type Embed struct {
	Fields []EmbedField `json:"fields"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Sentinels rendered when a section has nothing to show in a field.
const (
	noContext      = "No Context"
	noReleaseDates = "No Release Dates"
)

// BuildEmbed renders a changed section into the embed field list.
//
// The ordering and presence rules are a user-visible contract:
//
//	Display Name | Section ID | (Category or Background)
//	[Background if a category took its slot] | Group Count | [Billboard if > 0]
//	Context(s)
//	Possible Release Dates
//
// Background appears exactly once: in the first row when the section has no
// category, otherwise in the second row.
func BuildEmbed(sec catalog.RawSection, norm catalog.NormalizedSection) Embed {
	backgroundURL := sec.Metadata.Background.CustomTexture
	background := catalog.NoBackground
	if backgroundURL != "" {
		background = fmt.Sprintf("[Background](%s)", backgroundURL)
	}

	sectionID := sec.SectionID
	if sectionID == "" {
		sectionID = catalog.UnknownValue
	}

	contexts := noContext
	if len(norm.Contexts) > 0 {
		contexts = strings.Join(norm.Contexts, "\n")
	}

	releaseDates := noReleaseDates
	if len(norm.ReleaseDates) > 0 {
		marks := make([]string, 0, len(norm.ReleaseDates))
		for _, d := range norm.ReleaseDates {
			marks = append(marks, relativeTimestamp(d))
		}
		releaseDates = strings.Join(marks, "\n")
	}

	fields := []EmbedField{
		{Name: "**Display Name**", Value: norm.DisplayName, Inline: true},
		{Name: "**Section ID**", Value: sectionID, Inline: true},
	}

	if sec.Category != "" {
		fields = append(fields,
			EmbedField{Name: "**Category**", Value: sec.Category, Inline: true},
			EmbedField{Name: "**Background**", Value: background, Inline: true},
		)
	} else {
		fields = append(fields, EmbedField{Name: "**Background**", Value: background, Inline: true})
	}

	fields = append(fields, EmbedField{Name: "**Group Count**", Value: fmt.Sprintf("%d", norm.GroupCount), Inline: true})
	if norm.Billboard > 0 {
		fields = append(fields, EmbedField{Name: "**Billboard**", Value: fmt.Sprintf("%d", norm.Billboard), Inline: true})
	}

	fields = append(fields,
		EmbedField{Name: "**Context(s)**", Value: contexts, Inline: false},
		EmbedField{Name: "**Possible Release Dates**", Value: releaseDates, Inline: false},
	)

	return Embed{Fields: fields}
}

// relativeTimestamp renders an ISO-8601 date as the platform's relative time
// marker. A string that doesn't parse is rendered verbatim; a notifier must
// not die on one odd date.
func relativeTimestamp(date string) string {
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}
