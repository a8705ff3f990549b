package routine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplacementLinks_SingleBridge(t *testing.T) {
	links := []Link{link("l1", "a", "b"), link("l2", "b", "c")}
	got := ReplacementLinks("b", links)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].FromID)
	assert.Equal(t, "c", got[0].ToID)
	assert.NotEmpty(t, got[0].ID)
}

func TestReplacementLinks_AmbiguousLeavesGap(t *testing.T) {
	links := []Link{
		link("l1", "a", "b"),
		link("l2", "a2", "b"),
		link("l3", "b", "c"),
		link("l4", "b", "c2"),
		link("other", "a", "a2"),
	}
	got := ReplacementLinks("b", links)
	assert.Equal(t, []Link{link("other", "a", "a2")}, got)
}

func TestReplacementLinks_OnePredecessorFansOut(t *testing.T) {
	links := []Link{
		link("l1", "a", "b"),
		link("l2", "b", "c"),
		link("l3", "b", "d"),
	}
	got := ReplacementLinks("b", links)
	assert.ElementsMatch(t, []string{"a->c", "a->d"}, pairs(got))
}

func TestReplacementLinks_OneSuccessorFansIn(t *testing.T) {
	links := []Link{
		link("l1", "a", "b"),
		link("l2", "x", "b"),
		link("l3", "b", "c"),
	}
	got := ReplacementLinks("b", links)
	assert.ElementsMatch(t, []string{"a->c", "x->c"}, pairs(got))
}

func TestReplacementLinks_NoSuccessor(t *testing.T) {
	// single predecessor, nothing to bridge to
	got := ReplacementLinks("b", []Link{link("l1", "a", "b")})
	assert.Empty(t, got)
}

func TestReplacementLinks_NoPredecessors(t *testing.T) {
	links := []Link{link("l1", "b", "c"), link("l2", "b", "d")}
	assert.Empty(t, ReplacementLinks("b", links))
}

func TestReplacementLinks_DuplicateEdgesCountOnce(t *testing.T) {
	links := []Link{
		link("l1", "a", "b"),
		link("l1b", "a", "b"),
		link("l2", "b", "c"),
	}
	got := ReplacementLinks("b", links)
	assert.Equal(t, []string{"a->c"}, pairs(got))
}

func TestReplacementLinks_SelfLoopIgnored(t *testing.T) {
	links := []Link{
		link("self", "b", "b"),
		link("l1", "a", "b"),
		link("l2", "b", "c"),
	}
	assert.Equal(t, []string{"a->c"}, pairs(ReplacementLinks("b", links)))
}

func TestReplacementLinks_ExistingBridgeNotDuplicated(t *testing.T) {
	links := []Link{
		link("l1", "a", "b"),
		link("l2", "b", "c"),
		link("direct", "a", "c"),
	}
	got := ReplacementLinks("b", links)
	assert.Equal(t, []Link{link("direct", "a", "c")}, got)
}

func TestReplacementLinks_UnrelatedNode(t *testing.T) {
	links := []Link{link("l1", "a", "b")}
	assert.Equal(t, links, ReplacementLinks("zzz", links))
}
