package media

import (
	"sort"
	"time"
)

// MergeTimeline merges incoming items into existing, deduplicating by
// identity and sorting ascending by start time. Items with an empty ID are
// always kept. For duplicate identities the first occurrence wins, and the
// sort is stable so equal start times keep their dedup order.
func MergeTimeline(existing, incoming []*ViewMedia) []*ViewMedia {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]*ViewMedia, 0, len(existing)+len(incoming))

	add := func(items []*ViewMedia) {
		for _, m := range items {
			if m == nil {
				continue
			}
			if m.ID != "" {
				if _, ok := seen[m.ID]; ok {
					continue
				}
				seen[m.ID] = struct{}{}
			}
			out = append(out, m)
		}
	}
	add(existing)
	add(incoming)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// OldestStart returns the minimum start time present, or nil for an empty
// set. Nil items are skipped; decoded client payloads may contain them.
func OldestStart(items []*ViewMedia) *time.Time {
	var min *time.Time
	for _, m := range items {
		if m == nil {
			continue
		}
		if min == nil || m.Start.Before(*min) {
			t := m.Start
			min = &t
		}
	}
	return min
}

// NewestStart returns the maximum start time present, or nil for an empty
// set. Nil items are skipped.
func NewestStart(items []*ViewMedia) *time.Time {
	var max *time.Time
	for _, m := range items {
		if m == nil {
			continue
		}
		if max == nil || m.Start.After(*max) {
			t := m.Start
			max = &t
		}
	}
	return max
}
