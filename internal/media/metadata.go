package media

import "sort"

// MediaMetadata holds the facets available for media browsing: object
// labels (what), zones (where) and days with any media.
type MediaMetadata struct {
	What  []string `json:"what,omitempty"`
	Where []string `json:"where,omitempty"`
	Days  []string `json:"days,omitempty"`
}

// MergeMetadata unions the facets of all parts. Returns nil if the union
// is empty.
func MergeMetadata(parts ...*MediaMetadata) *MediaMetadata {
	what := map[string]struct{}{}
	where := map[string]struct{}{}
	days := map[string]struct{}{}

	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, w := range p.What {
			what[w] = struct{}{}
		}
		for _, w := range p.Where {
			where[w] = struct{}{}
		}
		for _, d := range p.Days {
			days[d] = struct{}{}
		}
	}

	if len(what) == 0 && len(where) == 0 && len(days) == 0 {
		return nil
	}

	return &MediaMetadata{
		What:  sortedKeys(what),
		Where: sortedKeys(where),
		Days:  sortedKeys(days),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
