package labels

import (
	"sort"
	"strconv"
	"strings"
)

// Label is one record label the catalog knows about, with every
// surface form a caller might use to reference it.
type Label struct {
	// ID is the canonical identifier. All other forms resolve to it.
	ID string `json:"id"`

	// Slug is the URL slug, e.g. "buildit-deep".
	Slug string `json:"slug"`

	// Name is the display name, e.g. "Build It Deep".
	Name string `json:"name"`

	// Aliases are additional accepted keywords, most specific first.
	Aliases []string `json:"aliases"`
}

// Table is the immutable label table built once at startup and passed
// explicitly to everything that resolves or reconciles labels. It is
// the sole authority on canonical label IDs.
type Table struct {
	labels []Label
}

// NewTable builds a table from label definitions. Labels are kept in
// ascending canonical-ID order so every scan over them, and therefore
// every resolution, is deterministic.
func NewTable(defs []Label) Table {
	labels := make([]Label, len(defs))
	copy(labels, defs)
	sort.Slice(labels, func(i, j int) bool {
		return labelIDLess(labels[i].ID, labels[j].ID)
	})
	return Table{labels: labels}
}

// labelIDLess orders numeric IDs numerically and everything else
// lexically, so "10" sorts after "2".
func labelIDLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// Labels returns the table's labels in canonical order.
func (t Table) Labels() []Label {
	out := make([]Label, len(t.labels))
	copy(out, t.labels)
	return out
}

// Lookup returns the label with the given canonical ID.
func (t Table) Lookup(id string) (Label, bool) {
	for _, l := range t.labels {
		if l.ID == id {
			return l, true
		}
	}
	return Label{}, false
}

// Resolve collapses any surface form of a label reference into its
// canonical ID. Matching rules, first hit wins:
//
//  1. exact canonical ID
//  2. slug, case-insensitive
//  3. display name, case-insensitive
//  4. any alias appearing as a case-insensitive substring of the input
//
// Exact structural identifiers outrank textual ones so a display name
// that happens to contain another label's alias cannot be
// miscategorized. An unrecognized reference returns ok=false; this
// package never defaults.
func (t Table) Resolve(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	for _, l := range t.labels {
		if l.ID == ref {
			return l.ID, true
		}
	}

	for _, l := range t.labels {
		if l.Slug != "" && strings.EqualFold(l.Slug, ref) {
			return l.ID, true
		}
	}

	for _, l := range t.labels {
		if l.Name != "" && strings.EqualFold(l.Name, ref) {
			return l.ID, true
		}
	}

	lower := strings.ToLower(ref)
	for _, l := range t.labels {
		if aliasIn(l, lower) {
			return l.ID, true
		}
	}

	return "", false
}

// MatchingLabels returns the IDs of every label whose alias keywords
// appear in the given free text, in canonical order. Used by the
// reconciliation engine's heuristic and tie-break steps.
func (t Table) MatchingLabels(text string) []string {
	lower := strings.ToLower(text)
	var ids []string
	for _, l := range t.labels {
		if aliasIn(l, lower) {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// aliasIn reports whether any of the label's aliases appears as a
// substring of the already-lowercased text.
func aliasIn(l Label, lowerText string) bool {
	for _, alias := range l.Aliases {
		if alias == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}
