package core

// Reorder implements the dedicated reorder reconciler from spec §4.5. It runs
// once a plan's structural actions (CREATE/UPDATE/MOVE/REMOVE) are otherwise
// final, and appends REORDER actions that bring every folder touched by those
// actions into the order the source side actually holds.
//
// target is the plan being finished (already translated into the target
// side's id space by Diff.Map). source is the live tree on the other side,
// whose child order is authoritative. mapping is the current snapshot;
// sourceToTarget selects the translation direction (true when source is
// local and target is server). removedInTarget names folders that target
// itself removes, whose REORDERs must be suppressed since there is nothing
// left to reorder.
func Reorder(target *Diff, source *Item, mapping Mapping, sourceToTarget bool, removedInTarget map[string]bool) *Diff {
	sourceIdx := BuildIndex(source)
	touched := touchedFolders(target)

	out := &Diff{actions: append([]Action{}, target.actions...)}

	for folderID := range touched {
		if removedInTarget[folderID] {
			continue
		}

		sourceParentID, ok := mapping.Translate(KindFolder, folderID, !sourceToTarget)
		if !ok {
			// The folder itself has no counterpart on the source side yet
			// (e.g. it was just created there too, in the same run); nothing
			// authoritative to copy.
			continue
		}

		sourceFolder := sourceIdx.Get(KindFolder, sourceParentID)
		if sourceFolder == nil {
			continue
		}

		order := translateOrder(sourceFolder.Children, mapping, sourceToTarget)
		if len(order) == 0 {
			continue
		}

		out.actions = append(out.actions, Action{
			Type:    ActionReorder,
			Payload: &Item{Kind: KindFolder, ID: folderID},
			Order:   order,
		})
	}

	return out
}

// touchedFolders collects every folder id directly or indirectly affected by
// a CREATE or MOVE in target: the destination parent of the action, and for
// MOVE, the source parent it left.
func touchedFolders(target *Diff) map[string]bool {
	touched := make(map[string]bool)

	for _, a := range target.actions {
		switch a.Type {
		case ActionCreate, ActionMove:
			if a.Payload != nil {
				touched[a.Payload.ParentID] = true
			}

			if a.Type == ActionMove && a.OldItem != nil {
				touched[a.OldItem.ParentID] = true
			}
		}
	}

	return touched
}

// translateOrder projects children through mapping, dropping any child with
// no counterpart on the target side yet — the "skip missing ids" policy
// decided for the ordering edge case in SPEC_FULL.md §4.8.
func translateOrder(children []*Item, mapping Mapping, sourceToTarget bool) []OrderEntry {
	var out []OrderEntry

	for _, c := range children {
		id, ok := mapping.Translate(c.Kind, c.ID, sourceToTarget)
		if !ok {
			continue
		}

		out = append(out, OrderEntry{Kind: c.Kind, ID: id})
	}

	return out
}
