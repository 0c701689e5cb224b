package catalog

import (
	"reflect"
	"slices"
)

// Changed reports whether a section differs from its previous normalized
// state, with release dates excluded from both sides. Dates shift transiently
// between polls and must not trigger spurious notifications; every other
// field is structural identity. A nil previous state always counts as changed.
func Changed(old *NormalizedSection, next NormalizedSection) bool {
	if old == nil {
		return true
	}
	if old.DisplayName != next.DisplayName ||
		old.BackgroundURL != next.BackgroundURL ||
		old.GroupCount != next.GroupCount ||
		old.Billboard != next.Billboard {
		return true
	}
	if (old.Category == nil) != (next.Category == nil) {
		return true
	}
	if old.Category != nil && *old.Category != *next.Category {
		return true
	}
	return !slices.Equal(old.Contexts, next.Contexts)
}

// SnapshotChanged compares the full mappings by deep equality, release dates
// included. This governs persistence, independent of whether any section
// produced a notification: dates stay fresh in storage even when no one is
// notified about them.
func SnapshotChanged(old, next Snapshot) bool {
	if len(old) == 0 && len(next) == 0 {
		return false
	}
	return !reflect.DeepEqual(old, next)
}
