package api

import (
	"testing"
	"time"

	"github.com/meikuraledutech/routine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_EvictsIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s := newSessions(2, time.Minute)
	s.now = func() time.Time { return now }

	a, err := s.add(routine.NewEditor(routine.Routine{ID: "a"}))
	require.NoError(t, err)
	_, err = s.add(routine.NewEditor(routine.Routine{ID: "b"}))
	require.NoError(t, err)

	_, err = s.add(routine.NewEditor(routine.Routine{ID: "c"}))
	assert.ErrorIs(t, err, errTooManySessions)

	// touching a keeps it alive while b goes idle
	now = now.Add(45 * time.Second)
	require.NotNil(t, s.get(a))
	now = now.Add(30 * time.Second)

	_, err = s.add(routine.NewEditor(routine.Routine{ID: "c"}))
	require.NoError(t, err)
	assert.Equal(t, 2, s.len())
	assert.NotNil(t, s.get(a))
}

func TestSessions_Remove(t *testing.T) {
	s := newSessions(1, time.Minute)
	id, err := s.add(routine.NewEditor(routine.Routine{ID: "a"}))
	require.NoError(t, err)
	assert.True(t, s.remove(id))
	assert.False(t, s.remove(id))
	assert.Nil(t, s.get(id))
}
