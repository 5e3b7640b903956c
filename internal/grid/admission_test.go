package grid

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/drake/vidwall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives admission deterministically in tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAdmission(maxActive, maxAttempts int) (*Admission, *fakeClock) {
	clock := newFakeClock()
	a := NewAdmission(maxActive, maxAttempts, time.Second, testLogger())
	a.SetStrict(true)
	a.now = clock.now
	return a, clock
}

func seqOf(n int) []string {
	seq := make([]string, n)
	for i := range seq {
		seq[i] = fmt.Sprintf("v%03d", i)
	}
	return seq
}

func fullRange(n int) domain.Range { return domain.Range{Start: 0, End: n} }

func occupancy(a *Admission) int {
	active, loading, _ := a.Counts()
	return active + loading
}

func TestAdmissionCapWhenManyEnterAtOnce(t *testing.T) {
	a, _ := newTestAdmission(6, 3)
	seq := seqOf(20)

	loads, unloads := a.Sync(seq, fullRange(20), fullRange(20), 1)
	require.Len(t, loads, 6)
	assert.Empty(t, unloads)

	for _, id := range loads {
		require.True(t, a.MarkLoaded(id, 1))
	}
	active, loading, failed := a.Counts()
	assert.Equal(t, 6, active)
	assert.Zero(t, loading)
	assert.Zero(t, failed)

	// The remaining 14 stay Idle, never Error
	idle := 0
	for _, id := range seq {
		st, ok := a.Status(id)
		require.True(t, ok)
		if st.Phase == domain.PhaseIdle {
			idle++
		}
		assert.NotEqual(t, domain.PhaseFailed, st.Phase)
	}
	assert.Equal(t, 14, idle)

	// Re-syncing the same ranges starts nothing new: all actives are in range
	loads, unloads = a.Sync(seq, fullRange(20), fullRange(20), 1)
	assert.Empty(t, loads)
	assert.Empty(t, unloads)
}

func TestAdmissionResumesAsScrollEvicts(t *testing.T) {
	a, _ := newTestAdmission(4, 3)
	seq := seqOf(20)

	loads, _ := a.Sync(seq, domain.Range{Start: 0, End: 8}, fullRange(20), 1)
	require.Len(t, loads, 4)
	for _, id := range loads {
		require.True(t, a.MarkLoaded(id, 1))
	}

	// Scroll: admission window moves past the loaded items; they remain in
	// retention but become evictable, so admission resumes
	loads, unloads := a.Sync(seq, domain.Range{Start: 8, End: 16}, fullRange(20), 1)
	assert.Len(t, loads, 4)
	assert.Len(t, unloads, 4)
	assert.LessOrEqual(t, occupancy(a), 4)
}

func TestAdmissionDefersWhenAllActiveAreInRange(t *testing.T) {
	a, _ := newTestAdmission(2, 3)
	seq := seqOf(4)

	loads, _ := a.Sync(seq, fullRange(4), fullRange(4), 1)
	require.Len(t, loads, 2)
	for _, id := range loads {
		require.True(t, a.MarkLoaded(id, 1))
	}

	// All actives still inside the admission range: nothing evictable, the
	// two pending items stay Idle and the cap holds
	loads, unloads := a.Sync(seq, fullRange(4), fullRange(4), 1)
	assert.Empty(t, loads)
	assert.Empty(t, unloads)
	assert.Equal(t, 2, occupancy(a))
}

func TestAdmissionEvictsLowestRecencyFirst(t *testing.T) {
	a, clock := newTestAdmission(2, 3)
	seq := seqOf(6)

	loads, _ := a.Sync(seq, domain.Range{Start: 0, End: 2}, fullRange(6), 1)
	require.Equal(t, []string{"v000", "v001"}, loads)
	require.True(t, a.MarkLoaded("v000", 1))
	require.True(t, a.MarkLoaded("v001", 1))

	// Touch v000 by keeping it in the admission range while v001 ages out
	clock.advance(time.Second)
	a.Sync(seq, domain.Range{Start: 0, End: 1}, fullRange(6), 1)

	// Now admit two fresh items: v001 (least recently touched) goes first
	_, unloads := a.Sync(seq, domain.Range{Start: 2, End: 4}, fullRange(6), 1)
	require.NotEmpty(t, unloads)
	assert.Equal(t, "v001", unloads[0])
}

func TestRetentionExitDestroysState(t *testing.T) {
	a, _ := newTestAdmission(4, 3)
	seq := seqOf(10)

	loads, _ := a.Sync(seq, domain.Range{Start: 0, End: 4}, domain.Range{Start: 0, End: 6}, 1)
	require.Len(t, loads, 4)
	for _, id := range loads {
		require.True(t, a.MarkLoaded(id, 1))
	}

	// Jump far away: everything previously tracked leaves retention
	loads, unloads := a.Sync(seq, domain.Range{Start: 6, End: 10}, domain.Range{Start: 6, End: 10}, 1)
	assert.Len(t, unloads, 4)
	assert.Len(t, loads, 4)
	for _, id := range []string{"v000", "v001", "v002", "v003"} {
		_, ok := a.Status(id)
		assert.False(t, ok, "state for %s should be destroyed", id)
	}
}

func TestScrollWithinRetentionKeepsActives(t *testing.T) {
	a, _ := newTestAdmission(8, 3)
	seq := seqOf(10)

	loads, _ := a.Sync(seq, domain.Range{Start: 0, End: 4}, fullRange(10), 1)
	for _, id := range loads {
		require.True(t, a.MarkLoaded(id, 1))
	}

	// Scroll away and back with retention still covering everything and
	// enough spare capacity that no eviction is needed
	a2loads, _ := a.Sync(seq, domain.Range{Start: 4, End: 8}, fullRange(10), 1)
	_ = a2loads
	back, unloads := a.Sync(seq, domain.Range{Start: 0, End: 4}, fullRange(10), 1)

	// The original four are still Active: no reload requested for them
	for _, id := range back {
		assert.NotContains(t, []string{"v000", "v001", "v002", "v003"}, id)
	}
	for _, id := range []string{"v000", "v001", "v002", "v003"} {
		st, ok := a.Status(id)
		require.True(t, ok)
		assert.Equal(t, domain.PhaseActive, st.Phase)
	}
	_ = unloads
}

func TestStaleCompletionsAreDiscarded(t *testing.T) {
	a, _ := newTestAdmission(2, 3)
	seq := seqOf(4)

	loads, _ := a.Sync(seq, domain.Range{Start: 0, End: 2}, domain.Range{Start: 0, End: 2}, 1)
	require.NotEmpty(t, loads)

	// Unknown id
	assert.False(t, a.MarkLoaded("v999", 1))
	// Wrong generation
	assert.False(t, a.MarkLoaded("v000", 7))
	// Item that has left scope entirely
	a.Sync(seq, domain.Range{Start: 2, End: 4}, domain.Range{Start: 2, End: 4}, 1)
	assert.False(t, a.MarkLoaded("v000", 1))
	// No load in flight
	assert.False(t, a.MarkFailed("v999", 1, domain.ErrorKindTransient))
}

func TestPermanentFailureGoesTerminalImmediately(t *testing.T) {
	a, _ := newTestAdmission(2, 3)
	seq := seqOf(2)

	loads, _ := a.Sync(seq, fullRange(2), fullRange(2), 1)
	require.Contains(t, loads, "v000")
	require.True(t, a.MarkFailed("v000", 1, domain.ErrorKindPermanent))

	st, ok := a.Status("v000")
	require.True(t, ok)
	assert.True(t, st.Terminal)
	assert.Equal(t, domain.PhaseFailed, st.Phase)
	assert.Equal(t, 1, st.Attempts)
}

func TestManualRetryResetsTerminalState(t *testing.T) {
	a, _ := newTestAdmission(2, 1)
	seq := seqOf(1)

	loads, _ := a.Sync(seq, fullRange(1), fullRange(1), 1)
	require.Len(t, loads, 1)
	require.True(t, a.MarkFailed("v000", 1, domain.ErrorKindTransient))

	st, _ := a.Status("v000")
	require.True(t, st.Terminal)

	// Manual retry on a non-terminal or unknown id is a no-op
	assert.False(t, a.ManualRetry("v999"))

	require.True(t, a.ManualRetry("v000"))
	st, _ = a.Status("v000")
	assert.False(t, st.Terminal)
	assert.Zero(t, st.Attempts)
	assert.Equal(t, domain.PhaseIdle, st.Phase)

	loads, _ = a.Sync(seq, fullRange(1), fullRange(1), 1)
	assert.Equal(t, []string{"v000"}, loads)
}

// TestAdmissionCapProperty drives the manager with randomized scroll deltas
// and completion interleavings; the active cap must hold at every step.
func TestAdmissionCapProperty(t *testing.T) {
	const (
		maxActive = 6
		total     = 200
		steps     = 500
	)
	a, clock := newTestAdmission(maxActive, 3)
	seq := seqOf(total)
	rng := rand.New(rand.NewSource(1))
	gen := uint64(1)

	var inflight []string
	pos := 0
	for step := 0; step < steps; step++ {
		pos += rng.Intn(41) - 20
		if pos < 0 {
			pos = 0
		}
		if pos > total-20 {
			pos = total - 20
		}
		admit := domain.Range{Start: pos, End: pos + 10}
		retain := domain.Range{Start: max(0, pos-30), End: min(total, pos+40)}

		loads, _ := a.Sync(seq, admit, retain, gen)
		inflight = append(inflight, loads...)
		require.LessOrEqual(t, occupancy(a), maxActive, "step %d", step)

		// Randomly resolve some in-flight loads
		for len(inflight) > 0 && rng.Intn(2) == 0 {
			id := inflight[0]
			inflight = inflight[1:]
			switch rng.Intn(3) {
			case 0:
				a.MarkFailed(id, gen, domain.ErrorKindTransient)
			default:
				a.MarkLoaded(id, gen)
			}
			require.LessOrEqual(t, occupancy(a), maxActive, "step %d", step)
		}
		clock.advance(time.Duration(rng.Intn(500)) * time.Millisecond)
	}
}
