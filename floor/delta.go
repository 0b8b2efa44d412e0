package floor

// Entity types and delta actions as they appear on the wire.
const (
	EntityGuest = "guest"
	EntityTable = "table"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Delta describes one entity's committed change. Data carries the full
// post-state a subscriber needs to render the entity, taken straight from
// the persisted row, never recomputed.
type Delta struct {
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	Action     string      `json:"action"`
	Data       interface{} `json:"data,omitempty"`
}

// dedupeDeltas collapses multiple deltas for the same entity into one,
// keeping the last (authoritative) state. A created action survives a
// later update so subscribers still learn the entity is new.
func dedupeDeltas(deltas []Delta) []Delta {
	type key struct{ entityType, id string }
	index := make(map[key]int)
	out := make([]Delta, 0, len(deltas))

	for _, d := range deltas {
		k := key{d.EntityType, d.EntityID}
		if i, ok := index[k]; ok {
			action := d.Action
			if out[i].Action == ActionCreated && action == ActionUpdated {
				action = ActionCreated
			}
			out[i].Action = action
			out[i].Data = d.Data
			continue
		}
		index[k] = len(out)
		out = append(out, d)
	}
	return out
}
