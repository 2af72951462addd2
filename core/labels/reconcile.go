package labels

import "sort"

// Strategy identifies which resolution step produced a result. The
// order below is a confidence ranking, most authoritative first.
type Strategy string

const (
	// StrategyDirect used an explicit foreign-key-style reference.
	StrategyDirect Strategy = "direct"
	// StrategyIndirect chose among explicit join-table links.
	StrategyIndirect Strategy = "indirect"
	// StrategyHeuristic matched label keywords in free text.
	StrategyHeuristic Strategy = "heuristic"
	// StrategyDefault fell back to the catalog's primary label.
	// Consumers must treat this as "we guessed", not "we know".
	StrategyDefault Strategy = "default"
)

// Entity is the label-relevant projection of an artist, release, or
// track: its identity, its free text, and every candidate label
// association discovered from the different sources.
type Entity struct {
	// ID identifies the entity being reconciled.
	ID string `json:"id"`

	// Name is the entity's display name.
	Name string `json:"name"`

	// Bio is free text attached to the entity, if any.
	Bio string `json:"bio"`

	// DirectLabelID is an explicit label reference carried by the
	// entity itself, in any surface form. Empty when absent.
	DirectLabelID string `json:"direct_label_id"`

	// LinkedLabelIDs are labels associated via join-table records, in
	// any surface form. May be empty.
	LinkedLabelIDs []string `json:"linked_label_ids"`
}

// Result is the outcome of reconciling one entity. It is ephemeral:
// the relational store stays the system of record until a caller
// explicitly accepts and persists the result.
type Result struct {
	// EntityID is the reconciled entity.
	EntityID string `json:"entity_id"`

	// LabelID is the resolved canonical label.
	LabelID string `json:"label_id"`

	// Strategy records which step resolved the label, which doubles
	// as the confidence level.
	Strategy Strategy `json:"strategy"`
}

// Engine collapses an entity's candidate label associations into one
// canonical label. It is pure: the same entity snapshot and the same
// table always produce the same result, so re-runs are idempotent and
// never thrash previously assigned labels.
type Engine struct {
	table          Table
	defaultLabelID string
}

// NewEngine creates a reconciliation engine over the given label table.
// defaultLabelID is the canonical ID of the catalog's primary label,
// assigned only when no structured or textual evidence exists.
func NewEngine(table Table, defaultLabelID string) *Engine {
	return &Engine{table: table, defaultLabelID: defaultLabelID}
}

// Reconcile resolves the entity's canonical label. Strategies are
// tried most-authoritative first: direct reference, join-table links,
// free-text keyword match, configured default.
func (e *Engine) Reconcile(ent Entity) Result {
	if ent.DirectLabelID != "" {
		if id, ok := e.table.Resolve(ent.DirectLabelID); ok {
			return Result{EntityID: ent.ID, LabelID: id, Strategy: StrategyDirect}
		}
		// A direct reference that resolves to nothing is treated as
		// absent rather than trusted blindly.
	}

	if candidates := e.canonicalLinks(ent.LinkedLabelIDs); len(candidates) > 0 {
		return Result{
			EntityID: ent.ID,
			LabelID:  e.pickCandidate(candidates, ent),
			Strategy: StrategyIndirect,
		}
	}

	if matches := e.table.MatchingLabels(ent.Name + " " + ent.Bio); len(matches) > 0 {
		// MatchingLabels returns canonical order, so the first entry
		// is already the lowest-ID match when several labels hit.
		return Result{EntityID: ent.ID, LabelID: matches[0], Strategy: StrategyHeuristic}
	}

	return Result{EntityID: ent.ID, LabelID: e.defaultLabelID, Strategy: StrategyDefault}
}

// canonicalLinks resolves and deduplicates join-table references,
// returning them in ascending canonical order. Unresolvable links are
// dropped.
func (e *Engine) canonicalLinks(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	var ids []string
	for _, ref := range refs {
		id, ok := e.table.Resolve(ref)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return labelIDLess(ids[i], ids[j]) })
	return ids
}

// pickCandidate chooses among multiple linked labels. A label whose
// alias keywords appear in the entity's name or bio wins; otherwise
// the lowest canonical ID does. Never an arbitrary map-order pick.
func (e *Engine) pickCandidate(candidates []string, ent Entity) string {
	if len(candidates) == 1 {
		return candidates[0]
	}

	keyword := e.table.MatchingLabels(ent.Name + " " + ent.Bio)
	for _, candidate := range candidates {
		for _, matched := range keyword {
			if candidate == matched {
				return candidate
			}
		}
	}

	return candidates[0]
}
