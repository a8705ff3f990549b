package routine

import "strings"

// Code is the overall status of a routine graph.
type Code string

const (
	CodeValid      Code = "Valid"
	CodeIncomplete Code = "Incomplete"
	CodeInvalid    Code = "Invalid"
)

// Messages produced by Validate, in evaluation order.
const (
	MsgDuplicatePosition = "Multiple nodes share the same position"
	MsgNoStart           = "No start node found"
	MsgMultipleStarts    = "More than one start node found"
	MsgNoRoot            = "Error determining start node"
	MsgNotConnected      = "Nodes are not fully connected"
	MsgBadLeaf           = "Not all paths end with an end node"
	MsgUnplaced          = "Some nodes are not linked"
	MsgValid             = "Routine is fully connected"
)

// Result is the outcome of validating a graph.
//
// Links is the input link set with every link that touches an unplaced or
// missing node removed. Critical is set when two placed nodes share a
// position; the graph must then be reset with ResetLayout.
type Result struct {
	Code     Code     `json:"code"`
	Messages []string `json:"messages"`
	Links    []Link   `json:"-"`
	Critical bool     `json:"critical,omitempty"`
}

// Summary renders the messages for display: a single message as is,
// several as a bullet list.
func (r Result) Summary() string {
	if len(r.Messages) == 1 {
		return r.Messages[0]
	}
	var b strings.Builder
	for i, m := range r.Messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(m)
	}
	return b.String()
}

type position struct{ column, row int }

// Validate checks placement and connectivity of a graph. It never mutates
// its arguments.
func Validate(nodes []Node, links []Link) Result {
	placed := make(map[string]Node, len(nodes))
	unplaced := 0
	slots := make(map[position]int, len(nodes))
	for _, n := range nodes {
		col, row, ok := n.Position()
		if !ok {
			unplaced++
			continue
		}
		placed[n.ID] = n
		slots[position{col, row}]++
	}

	for _, count := range slots {
		if count > 1 {
			return Result{
				Code:     CodeInvalid,
				Messages: []string{MsgDuplicatePosition},
				Links:    []Link{},
				Critical: true,
			}
		}
	}

	// Links are only meaningful between placed nodes.
	kept := make([]Link, 0, len(links))
	hasIncoming := make(map[string]bool, len(placed))
	hasOutgoing := make(map[string]bool, len(placed))
	for _, l := range links {
		if _, ok := placed[l.FromID]; !ok {
			continue
		}
		if _, ok := placed[l.ToID]; !ok {
			continue
		}
		kept = append(kept, l)
		if l.FromID == l.ToID {
			continue
		}
		hasIncoming[l.ToID] = true
		hasOutgoing[l.FromID] = true
	}

	var invalid, incomplete []string

	starts, roots := 0, 0
	badLeaf := false
	// Iterate the input slice rather than the map so results are stable.
	for _, n := range nodes {
		if _, ok := placed[n.ID]; !ok {
			continue
		}
		if n.Type == NodeStart {
			starts++
		}
		if !hasIncoming[n.ID] {
			roots++
		}
		if !hasOutgoing[n.ID] && n.Type != NodeEnd {
			badLeaf = true
		}
	}

	switch {
	case starts == 0:
		invalid = append(invalid, MsgNoStart)
	case starts > 1:
		invalid = append(invalid, MsgMultipleStarts)
	}
	switch {
	case roots == 0:
		invalid = append(invalid, MsgNoRoot)
	case roots > 1:
		invalid = append(invalid, MsgNotConnected)
	}
	if badLeaf {
		invalid = append(invalid, MsgBadLeaf)
	}
	if unplaced > 0 {
		incomplete = append(incomplete, MsgUnplaced)
	}

	res := Result{Links: kept}
	switch {
	case len(invalid) > 0:
		res.Code = CodeInvalid
	case len(incomplete) > 0:
		res.Code = CodeIncomplete
	default:
		res.Code = CodeValid
		res.Messages = []string{MsgValid}
		return res
	}
	res.Messages = append(invalid, incomplete...)
	return res
}
