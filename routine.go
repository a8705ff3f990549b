package routine

import (
	"encoding/json"
	"fmt"
)

// Routine is the node/link graph of one routine.
type Routine struct {
	ID    string `json:"id"`
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// NodeType is the variant tag of a Node.
type NodeType string

const (
	NodeStart       NodeType = "Start"
	NodeEnd         NodeType = "End"
	NodeRoutineList NodeType = "RoutineList"
	NodeLoop        NodeType = "Loop"
	NodeRedirect    NodeType = "Redirect"
	NodeDecision    NodeType = "Decision"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeStart, NodeEnd, NodeRoutineList, NodeLoop, NodeRedirect, NodeDecision:
		return true
	}
	return false
}

// Node is a step in a routine graph.
// A node is placed when both ColumnIndex and RowIndex are set; otherwise it
// sits in the off-graph pool.
type Node struct {
	ID          string   `json:"id,omitempty"`
	Type        NodeType `json:"type"`
	ColumnIndex *int     `json:"column_index"`
	RowIndex    *int     `json:"row_index"`
	Data        NodeData `json:"data,omitempty"`
}

// Link is a directed connection between two nodes of the same routine.
type Link struct {
	ID     string `json:"id,omitempty"`
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

// MaxPosition is the largest column or row index a placed node may have.
const MaxPosition = 1<<16 - 1

// Placed reports whether the node has a full position within
// [0, MaxPosition]. Nodes with partial or out-of-range coordinates count as
// unplaced.
func (n Node) Placed() bool {
	return n.ColumnIndex != nil && n.RowIndex != nil &&
		inRange(*n.ColumnIndex) && inRange(*n.RowIndex)
}

func inRange(i int) bool { return i >= 0 && i <= MaxPosition }

// Position returns the node's column and row. ok is false for unplaced nodes.
func (n Node) Position() (column, row int, ok bool) {
	if !n.Placed() {
		return 0, 0, false
	}
	return *n.ColumnIndex, *n.RowIndex, true
}

// Place sets both coordinates.
func (n *Node) Place(column, row int) {
	n.ColumnIndex = &column
	n.RowIndex = &row
}

// Unplace clears the position, moving the node off-graph.
func (n *Node) Unplace() {
	n.ColumnIndex = nil
	n.RowIndex = nil
}

// clone returns a copy that shares no position pointers with n.
func (n Node) clone() Node {
	c := n
	if n.ColumnIndex != nil {
		v := *n.ColumnIndex
		c.ColumnIndex = &v
	}
	if n.RowIndex != nil {
		v := *n.RowIndex
		c.RowIndex = &v
	}
	return c
}

// NodeData is the type-specific payload of a node.
type NodeData interface {
	NodeType() NodeType
}

// StartData is the payload of a Start node.
type StartData struct{}

// EndData is the payload of an End node.
type EndData struct {
	WasSuccessful bool `json:"was_successful"`
}

// RoutineListData is the payload of a RoutineList node.
type RoutineListData struct {
	Title      string            `json:"title"`
	IsOrdered  bool              `json:"is_ordered"`
	IsOptional bool              `json:"is_optional"`
	Items      []RoutineListItem `json:"items"`
}

// RoutineListItem is one sub-routine referenced from a RoutineList node.
type RoutineListItem struct {
	ID         string `json:"id,omitempty"`
	Index      int    `json:"index"`
	RoutineID  string `json:"routine_id"`
	IsOptional bool   `json:"is_optional"`
}

// OpaqueData carries the payload of node types the graph logic never
// inspects (Loop, Redirect, Decision).
type OpaqueData struct {
	Kind NodeType
	Raw  json.RawMessage
}

func (StartData) NodeType() NodeType { return NodeStart }
func (EndData) NodeType() NodeType { return NodeEnd }
func (RoutineListData) NodeType() NodeType { return NodeRoutineList }
func (d OpaqueData) NodeType() NodeType { return d.Kind }

func (d OpaqueData) MarshalJSON() ([]byte, error) {
	if len(d.Raw) == 0 {
		return []byte("{}"), nil
	}
	return d.Raw, nil
}

// DefaultData returns the zero payload for t.
func DefaultData(t NodeType) NodeData {
	switch t {
	case NodeStart:
		return StartData{}
	case NodeEnd:
		return EndData{}
	case NodeRoutineList:
		return RoutineListData{Items: []RoutineListItem{}}
	default:
		return OpaqueData{Kind: t}
	}
}

// MarshalNodeData encodes a payload; nil encodes as an empty object.
func MarshalNodeData(d NodeData) (json.RawMessage, error) {
	if d == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(d)
}

// UnmarshalNodeData decodes raw into the payload variant selected by t.
func UnmarshalNodeData(t NodeType, raw []byte) (NodeData, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultData(t), nil
	}
	switch t {
	case NodeStart:
		return StartData{}, nil
	case NodeEnd:
		var d EndData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("routine: decode end data: %w", err)
		}
		return d, nil
	case NodeRoutineList:
		var d RoutineListData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("routine: decode routine list data: %w", err)
		}
		if d.Items == nil {
			d.Items = []RoutineListItem{}
		}
		return d, nil
	default:
		return OpaqueData{Kind: t, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

type nodeJSON struct {
	ID          string          `json:"id,omitempty"`
	Type        NodeType        `json:"type"`
	ColumnIndex *int            `json:"column_index"`
	RowIndex    *int            `json:"row_index"`
	Data        json.RawMessage `json:"data,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	data, err := MarshalNodeData(n.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(nodeJSON{
		ID:          n.ID,
		Type:        n.Type,
		ColumnIndex: n.ColumnIndex,
		RowIndex:    n.RowIndex,
		Data:        data,
	})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := UnmarshalNodeData(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	*n = Node{
		ID:          raw.ID,
		Type:        raw.Type,
		ColumnIndex: raw.ColumnIndex,
		RowIndex:    raw.RowIndex,
		Data:        data,
	}
	return nil
}
