package core

// ActionType enumerates the five kinds of structural edit the scanner and
// reconcilers can produce.
type ActionType uint8

const (
	ActionCreate ActionType = iota
	ActionUpdate
	ActionMove
	ActionRemove
	ActionReorder
)

// String renders the action type for logging.
func (t ActionType) String() string {
	switch t {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionMove:
		return "move"
	case ActionRemove:
		return "remove"
	case ActionReorder:
		return "reorder"
	default:
		return "unknown"
	}
}

// OrderEntry is one element of a REORDER action's authoritative order: the
// kind and id of a child, without the rest of its content.
type OrderEntry struct {
	Kind Kind
	ID   string
}

// Action is a single recorded structural edit. Payload carries the item in
// its post-state (for REORDER, the parent folder itself — the Order field
// carries the authoritative child order). OldItem carries the pre-state for
// MOVE and UPDATE; its id is stable across the action.
type Action struct {
	Type    ActionType
	Payload *Item
	OldItem *Item
	Order   []OrderEntry
}

// id returns the stable identifier a consumer should key this action by:
// OldItem's id for MOVE/UPDATE (pre-state, stable across the edit),
// Payload's id otherwise.
func (a Action) id() string {
	if a.OldItem != nil {
		return a.OldItem.ID
	}

	if a.Payload != nil {
		return a.Payload.ID
	}

	return ""
}

func (a Action) kind() Kind {
	if a.Payload != nil {
		return a.Payload.Kind
	}

	if a.OldItem != nil {
		return a.OldItem.Kind
	}

	return KindBookmark
}

// Diff is an ordered, append-only log of Actions.
type Diff struct {
	actions []Action
}

// NewDiff returns an empty Diff.
func NewDiff() *Diff {
	return &Diff{}
}

// Commit appends action to the log. O(1).
func (d *Diff) Commit(a Action) {
	d.actions = append(d.actions, a)
}

// GetActions returns the full log in commit order. Callers must not mutate
// the returned slice, and must not assume it reflects later commits — it is
// a snapshot of the log at call time.
func (d *Diff) GetActions() []Action {
	out := make([]Action, len(d.actions))
	copy(out, d.actions)

	return out
}

// GetActionsOfType returns only the actions of the given type, in log order.
func (d *Diff) GetActionsOfType(t ActionType) []Action {
	var out []Action

	for _, a := range d.actions {
		if a.Type == t {
			out = append(out, a)
		}
	}

	return out
}

// ActionFilter selects which actions a Map pass translates and keeps. An
// action for which filter returns false is dropped from the result entirely
// — this is the mapping-aware commit filter from spec §4.3, not a pass-
// through switch. A nil filter selects every action.
type ActionFilter func(Action) bool

// Map returns a new Diff containing, in order, every action selected by
// filter, with Payload's and OldItem's id and ParentID (and, for REORDER,
// every entry of Order) translated through mapping in the given direction.
// Unmapped ids pass through unchanged — per spec §4.2 this represents "newly
// created on the opposite side" and is the correct behavior, not an error.
func (d *Diff) Map(mapping Mapping, toServer bool, filter ActionFilter) *Diff {
	out := &Diff{}

	for _, a := range d.actions {
		if filter != nil && !filter(a) {
			continue
		}

		out.Commit(mapAction(a, mapping, toServer))
	}

	return out
}

func mapAction(a Action, mapping Mapping, toServer bool) Action {
	a.Payload = mapItemIdentity(a.Payload, mapping, toServer)
	a.OldItem = mapItemIdentity(a.OldItem, mapping, toServer)

	if a.Type == ActionReorder && a.Order != nil {
		order := make([]OrderEntry, len(a.Order))
		for i, e := range a.Order {
			id, _ := mapping.Translate(e.Kind, e.ID, toServer)
			order[i] = OrderEntry{Kind: e.Kind, ID: id}
		}

		a.Order = order
	}

	return a
}

// mapItemIdentity returns a shallow copy of it with ID and ParentID
// translated through mapping. Children are left untouched — callers that
// need deep translation (none currently do) should clone first.
func mapItemIdentity(it *Item, mapping Mapping, toServer bool) *Item {
	if it == nil {
		return nil
	}

	clone := *it
	clone.ID, _ = mapping.Translate(it.Kind, it.ID, toServer)
	clone.ParentID, _ = mapping.Translate(KindFolder, it.ParentID, toServer)

	return &clone
}
