package routine

import "github.com/google/uuid"

// ReplacementLinks returns the link set to install once nodeID leaves the
// graph. Links touching the node are dropped. When the node had a single
// predecessor it is bridged to every successor; otherwise, when it had a
// single successor, every predecessor is bridged to it. Any other shape is
// left with a gap for the validator to report.
func ReplacementLinks(nodeID string, links []Link) []Link {
	kept := make([]Link, 0, len(links))
	var preds, succs []string
	seenPred := make(map[string]bool)
	seenSucc := make(map[string]bool)

	for _, l := range links {
		if l.FromID != nodeID && l.ToID != nodeID {
			kept = append(kept, l)
			continue
		}
		if l.FromID == l.ToID {
			continue
		}
		if l.ToID == nodeID && !seenPred[l.FromID] {
			seenPred[l.FromID] = true
			preds = append(preds, l.FromID)
		}
		if l.FromID == nodeID && !seenSucc[l.ToID] {
			seenSucc[l.ToID] = true
			succs = append(succs, l.ToID)
		}
	}

	var bridges [][2]string
	switch {
	case len(preds) == 1:
		for _, s := range succs {
			bridges = append(bridges, [2]string{preds[0], s})
		}
	case len(succs) == 1:
		for _, p := range preds {
			bridges = append(bridges, [2]string{p, succs[0]})
		}
	}

	existing := make(map[[2]string]bool, len(kept))
	for _, l := range kept {
		existing[[2]string{l.FromID, l.ToID}] = true
	}
	for _, b := range bridges {
		if b[0] == b[1] || existing[b] {
			continue
		}
		existing[b] = true
		kept = append(kept, Link{ID: uuid.NewString(), FromID: b[0], ToID: b[1]})
	}
	return kept
}
