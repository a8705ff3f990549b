package routine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaver struct {
	calls int
	last  Changes
	err   error
}

func (f *fakeSaver) ApplyChanges(ctx context.Context, routineID string, c Changes) error {
	f.calls++
	f.last = c
	return f.err
}

func newMinimalEditor() *Editor {
	nodes, links := minimal()
	return NewEditor(Routine{ID: "r1", Nodes: nodes, Links: links})
}

func TestEditor_LoadsAndValidates(t *testing.T) {
	ed := newMinimalEditor()
	assert.Equal(t, "r1", ed.RoutineID())
	assert.Equal(t, CodeValid, ed.Status().Code)
	assert.False(t, ed.Dirty())
	require.Len(t, ed.View().Columns, 3)
}

func TestEditor_InvalidCoordinatesAreCleared(t *testing.T) {
	ed := NewEditor(Routine{ID: "r1"})
	ed.SetGraph([]Node{
		placed("s", NodeStart, -3, 0),
		placed("far", NodeEnd, 1<<40, 0),
		placed("a", NodeRoutineList, 0, 0),
	}, []Link{link("l1", "a", "s")})

	assert.False(t, findNode(t, ed.Nodes(), "s").Placed())
	assert.Nil(t, findNode(t, ed.Nodes(), "s").ColumnIndex)
	assert.Nil(t, findNode(t, ed.Nodes(), "far").ColumnIndex)
	assert.Len(t, ed.View().OffGraph, 2)
	require.Len(t, ed.View().Columns, 1)
	assert.Empty(t, ed.Links(), "links to unplaced nodes are pruned")
	assert.Equal(t, CodeInvalid, ed.Status().Code)

	bad := placed("a", NodeRoutineList, 0, -1)
	require.True(t, ed.UpdateNode(bad))
	assert.False(t, findNode(t, ed.Nodes(), "a").Placed())
	assert.Empty(t, ed.View().Columns)

	assert.False(t, ed.DropNode("a", -1, 0))
	assert.False(t, ed.DropNode("a", 0, MaxPosition+1))
}

func TestEditor_ReadsAreCopies(t *testing.T) {
	ed := newMinimalEditor()
	nodes := ed.Nodes()
	*nodes[0].ColumnIndex = 9
	nodes[1].ID = "changed"
	c, _, _ := ed.Nodes()[0].Position()
	assert.Equal(t, 0, c)
	assert.Equal(t, "a", ed.Nodes()[1].ID)
}

// --- links ---

func TestEditor_InsertLinkUpserts(t *testing.T) {
	ed := newMinimalEditor()
	l := ed.InsertLink(Link{FromID: "start", ToID: "a"})
	assert.NotEmpty(t, l.ID)
	assert.NotEqual(t, "l1", l.ID)

	links := ed.Links()
	assert.ElementsMatch(t, []string{"start->a", "a->end"}, pairs(links))
	for _, got := range links {
		assert.NotEqual(t, "l1", got.ID, "replaced link is gone")
	}
}

func TestEditor_InsertLinkToUnplacedNodeIsPruned(t *testing.T) {
	ed := newMinimalEditor()
	ed.AddNode(Node{ID: "spare", Type: NodeEnd})
	ed.InsertLink(Link{ID: "x", FromID: "a", ToID: "spare"})
	assert.ElementsMatch(t, []string{"start->a", "a->end"}, pairs(ed.Links()))
	assert.Equal(t, CodeIncomplete, ed.Status().Code)
}

func TestEditor_DeleteLink(t *testing.T) {
	ed := newMinimalEditor()
	assert.True(t, ed.DeleteLink("l2"))
	assert.Len(t, ed.Nodes(), 3)
	assert.Equal(t, []string{"start->a"}, pairs(ed.Links()))
	assert.Equal(t, CodeInvalid, ed.Status().Code)
	assert.Equal(t, []string{MsgNotConnected, MsgBadLeaf}, ed.Status().Messages)

	assert.False(t, ed.DeleteLink("l2"))
}

// --- nodes ---

func TestEditor_UpdateNode(t *testing.T) {
	ed := newMinimalEditor()
	n := findNode(t, ed.Nodes(), "a")
	n.Data = RoutineListData{Title: "Stretch", IsOrdered: true, Items: []RoutineListItem{}}
	assert.True(t, ed.UpdateNode(n))
	assert.Equal(t, "Stretch", findNode(t, ed.Nodes(), "a").Data.(RoutineListData).Title)
	assert.True(t, ed.Dirty())
}

func TestEditor_UpdateUnknownNodeIsNoop(t *testing.T) {
	ed := newMinimalEditor()
	before := ed.Routine()
	assert.False(t, ed.UpdateNode(Node{ID: "ghost", Type: NodeEnd}))
	assert.Equal(t, before, ed.Routine())
}

func TestEditor_AddNode(t *testing.T) {
	ed := newMinimalEditor()

	off := ed.AddNode(Node{Type: NodeRoutineList})
	assert.NotEmpty(t, off.ID)
	assert.False(t, off.Placed())
	assert.Equal(t, DefaultData(NodeRoutineList), off.Data)
	assert.Equal(t, CodeIncomplete, ed.Status().Code)

	onGraph := Node{ID: "e2", Type: NodeEnd}
	onGraph.Place(2, 0)
	got := ed.AddNode(onGraph)
	c, r, ok := got.Position()
	require.True(t, ok)
	assert.Equal(t, [2]int{2, 0}, [2]int{c, r})
	// the previous occupant moved down rather than colliding
	_, r, _ = findNode(t, ed.Nodes(), "end").Position()
	assert.Equal(t, 1, r)
	assert.False(t, ed.Status().Critical)
}

func TestEditor_DeleteNodeBridges(t *testing.T) {
	ed := newMinimalEditor()
	assert.True(t, ed.DeleteNode("a"))

	assert.Len(t, ed.Nodes(), 2)
	assert.Equal(t, []string{"start->end"}, pairs(ed.Links()))
	c, _, _ := findNode(t, ed.Nodes(), "end").Position()
	assert.Equal(t, 1, c, "emptied column compacted")
	assert.Equal(t, CodeValid, ed.Status().Code)
}

func TestEditor_UnlinkNodeKeepsItOffGraph(t *testing.T) {
	ed := newMinimalEditor()
	assert.True(t, ed.UnlinkNode("a"))

	assert.Len(t, ed.Nodes(), 3)
	assert.False(t, findNode(t, ed.Nodes(), "a").Placed())
	assert.Equal(t, []string{"start->end"}, pairs(ed.Links()))
	assert.Equal(t, CodeIncomplete, ed.Status().Code)
	assert.Equal(t, []string{MsgUnplaced}, ed.Status().Messages)
	require.Len(t, ed.View().OffGraph, 1)
	assert.Equal(t, "a", ed.View().OffGraph[0].ID)
}

func TestEditor_DeleteAmbiguousNodeLeavesGap(t *testing.T) {
	nodes := []Node{
		placed("s", NodeStart, 0, 0),
		placed("a", NodeRoutineList, 1, 0),
		placed("a2", NodeRoutineList, 1, 1),
		placed("b", NodeRoutineList, 2, 0),
		placed("c", NodeEnd, 3, 0),
		placed("c2", NodeEnd, 3, 1),
	}
	links := []Link{
		link("1", "s", "a"), link("2", "s", "a2"),
		link("3", "a", "b"), link("4", "a2", "b"),
		link("5", "b", "c"), link("6", "b", "c2"),
	}
	ed := NewEditor(Routine{ID: "r", Nodes: nodes, Links: links})
	require.Equal(t, CodeValid, ed.Status().Code)

	ed.DeleteNode("b")
	assert.ElementsMatch(t, []string{"s->a", "s->a2"}, pairs(ed.Links()))
	assert.Equal(t, CodeInvalid, ed.Status().Code)
}

func TestEditor_UnknownNodeOperationsAreNoops(t *testing.T) {
	ed := newMinimalEditor()
	before := ed.Routine()
	assert.False(t, ed.DeleteNode("ghost"))
	assert.False(t, ed.UnlinkNode("ghost"))
	assert.False(t, ed.DropNode("ghost", 0, 0))
	assert.Equal(t, before, ed.Routine())
}

func TestEditor_DropNodeReplacesUnlinkedNode(t *testing.T) {
	ed := newMinimalEditor()
	ed.UnlinkNode("a")
	assert.True(t, ed.DropNode("a", 1, 0))
	ed.InsertLink(Link{FromID: "start", ToID: "a"})
	ed.InsertLink(Link{FromID: "a", ToID: "end"})
	ed.DeleteLink(findLink(t, ed.Links(), "start", "end").ID)
	assert.Equal(t, CodeValid, ed.Status().Code, ed.Status().Messages)
}

func findLink(t *testing.T, links []Link, from, to string) Link {
	t.Helper()
	for _, l := range links {
		if l.FromID == from && l.ToID == to {
			return l
		}
	}
	t.Fatalf("link %s->%s not found", from, to)
	return Link{}
}

func TestEditor_InsertNodeOnLink(t *testing.T) {
	ed := newMinimalEditor()
	n, err := ed.InsertNodeOnLink("l2")
	require.NoError(t, err)
	c, _, _ := n.Position()
	assert.Equal(t, 2, c)
	assert.Len(t, ed.Nodes(), 4)
	assert.Equal(t, CodeValid, ed.Status().Code)

	before := ed.Routine()
	_, err = ed.InsertNodeOnLink("missing")
	assert.ErrorIs(t, err, ErrLinkNotFound)
	assert.Equal(t, before, ed.Routine())
}

// --- critical reset ---

func TestEditor_DuplicatePositionResetsLayout(t *testing.T) {
	ed := newMinimalEditor()
	nodes, links := minimal()
	nodes[1].Place(0, 0) // collides with start
	ed.SetGraph(nodes, links)

	st := ed.Status()
	assert.Equal(t, CodeInvalid, st.Code)
	assert.Equal(t, []string{MsgDuplicatePosition}, st.Messages)
	assert.True(t, st.Critical)
	for _, n := range ed.Nodes() {
		assert.False(t, n.Placed(), n.ID)
	}
	assert.Empty(t, ed.Links())
	assert.Len(t, ed.View().OffGraph, 3)
}

// --- save / revert ---

func TestEditor_SaveSubmitsDiff(t *testing.T) {
	ed := newMinimalEditor()
	saver := &fakeSaver{}

	require.NoError(t, ed.Save(context.Background(), saver))
	assert.Equal(t, 0, saver.calls, "nothing to save")

	ed.DeleteNode("a")
	require.NoError(t, ed.Save(context.Background(), saver))
	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, []string{"a"}, saver.last.DeleteNodeIDs)
	assert.ElementsMatch(t, []string{"l1", "l2"}, saver.last.DeleteLinkIDs)
	assert.Equal(t, []string{"start->end"}, pairs(saver.last.CreateLinks))
	assert.False(t, ed.Dirty())
}

func TestEditor_SaveFailureKeepsGraph(t *testing.T) {
	ed := newMinimalEditor()
	boom := errors.New("connection reset")
	saver := &fakeSaver{err: boom}

	ed.DeleteNode("a")
	edited := ed.Routine()
	err := ed.Save(context.Background(), saver)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, edited, ed.Routine())
	assert.True(t, ed.Dirty())

	saver.err = nil
	require.NoError(t, ed.Save(context.Background(), saver))
	assert.False(t, ed.Dirty())
}

func TestEditor_Revert(t *testing.T) {
	ed := newMinimalEditor()
	original := ed.Routine()

	ed.DeleteNode("a")
	ed.Revert()
	assert.Equal(t, original, ed.Routine())
	assert.Equal(t, CodeValid, ed.Status().Code)
	assert.False(t, ed.Dirty())
}
