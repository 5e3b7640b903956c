package grid

import (
	"context"
	"testing"
	"time"

	"github.com/drake/vidwall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, e *Engine) *Loop {
	t.Helper()
	l := NewLoop(e, time.Hour, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.Run(ctx)
	return l
}

func waitUpdate(t *testing.T, l *Loop) Update {
	t.Helper()
	select {
	case u := <-l.Updates():
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func TestLoopKickPublishesRefresh(t *testing.T) {
	e, _ := testEngine(t, 6)
	e.SetCatalog(gridCatalog(10))
	e.SetViewport(smallGridViewport())
	l := startLoop(t, e)

	l.Kick()
	u := waitUpdate(t, l)
	_, _, adds := opKinds(u.Ops)
	assert.Equal(t, 10, adds)
	assert.Len(t, u.Loads, 6)
}

func TestLoopCollapsesPendingKicks(t *testing.T) {
	e, _ := testEngine(t, 6)
	e.SetCatalog(gridCatalog(10))
	e.SetViewport(smallGridViewport())
	l := NewLoop(e, time.Hour, testLogger())

	// No consumer yet: the first kick is queued, the rest collapse
	for i := 0; i < 50; i++ {
		l.Kick()
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.Run(ctx)

	u := waitUpdate(t, l)
	require.False(t, u.Empty())

	// The collapsed kicks produced exactly one pass; the engine has already
	// converged, so a fresh kick publishes an empty update
	l.Kick()
	u = waitUpdate(t, l)
	assert.True(t, u.Empty())
}

func TestLoopComputesAgainstLatestState(t *testing.T) {
	e, _ := testEngine(t, 6)
	e.SetCatalog(gridCatalog(10))
	e.SetViewport(smallGridViewport())
	l := startLoop(t, e)

	l.Kick()
	waitUpdate(t, l)

	// Mutations landed between kick and pass are all visible to the pass
	v := smallGridViewport()
	v.ScrollOffset = 300
	e.SetViewport(v)
	require.NoError(t, e.SetHidden("v009", true))
	l.Kick()

	u := waitUpdate(t, l)
	assert.Equal(t, 9, u.Stats.FilteredItems)
}

func TestLoopSequenceNumbersIncrease(t *testing.T) {
	e, _ := testEngine(t, 6)
	e.SetCatalog(gridCatalog(4))
	e.SetViewport(smallGridViewport())
	l := startLoop(t, e)

	l.Kick()
	first := waitUpdate(t, l)
	require.NoError(t, e.SetHidden("v000", true))
	l.Kick()
	second := waitUpdate(t, l)

	assert.Greater(t, second.Seq, first.Seq)
	assert.Equal(t, domain.OpRemove, second.Ops[0].Kind)
}
