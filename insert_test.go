package routine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertNodeOnLink_SplitsAndShifts(t *testing.T) {
	nodes := []Node{
		placed("start", NodeStart, 0, 0),
		placed("a", NodeRoutineList, 1, 0),
		placed("b", NodeRoutineList, 2, 0),
		placed("d", NodeEnd, 3, 0),
		unplaced("spare", NodeRoutineList),
	}
	links := []Link{
		link("l0", "start", "a"),
		link("ab", "a", "b"),
		link("bd", "b", "d"),
	}

	ins, err := InsertNodeOnLink(link("ab", "", ""), nodes, links)
	require.NoError(t, err)

	col, row, ok := ins.Node.Position()
	require.True(t, ok)
	assert.Equal(t, 2, col)
	assert.Equal(t, 0, row)
	assert.Equal(t, NodeRoutineList, ins.Node.Type)
	assert.Equal(t, RoutineListData{Title: "Node 5", Items: []RoutineListItem{}}, ins.Node.Data)

	expectCol := map[string]int{"start": 0, "a": 1, "b": 3, "d": 4}
	for id, want := range expectCol {
		c, _, ok := findNode(t, ins.Nodes, id).Position()
		require.True(t, ok, id)
		assert.Equal(t, want, c, id)
	}
	assert.False(t, findNode(t, ins.Nodes, "spare").Placed())
	assert.Len(t, ins.Nodes, 6)

	assert.Equal(t, []string{"start->a", "b->d", "a->" + ins.Node.ID, ins.Node.ID + "->b"}, pairs(ins.Links))

	// inputs untouched
	c, _, _ := nodes[2].Position()
	assert.Equal(t, 2, c)
	assert.Len(t, links, 3)
}

func TestInsertNodeOnLink_ResultValidates(t *testing.T) {
	nodes, links := minimal()
	ins, err := InsertNodeOnLink(link("l2", "", ""), nodes, links)
	require.NoError(t, err)
	res := Validate(ins.Nodes, ins.Links)
	assert.Equal(t, CodeValid, res.Code, res.Messages)
}

func TestInsertNodeOnLink_Errors(t *testing.T) {
	nodes, links := minimal()

	_, err := InsertNodeOnLink(link("nope", "", ""), nodes, links)
	assert.ErrorIs(t, err, ErrLinkNotFound)

	_, err = InsertNodeOnLink(link("ghost", "", ""), nodes, append(links, link("ghost", "a", "missing")))
	assert.ErrorIs(t, err, ErrNodeNotFound)

	nodes = append(nodes, unplaced("off", NodeEnd))
	_, err = InsertNodeOnLink(link("off", "", ""), nodes, append(links, link("off", "a", "off")))
	assert.ErrorIs(t, err, ErrNodeNotPlaced)
}
