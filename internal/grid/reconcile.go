package grid

import (
	"sort"

	"github.com/drake/vidwall/internal/domain"
)

// Reconciler owns the rendered set: the id -> absolute-position mapping of
// items currently represented in the presentation tree. It mutates that set
// exclusively through the operations it emits.
type Reconciler struct {
	rendered map[string]int
}

// NewReconciler creates a reconciler with an empty rendered set.
func NewReconciler() *Reconciler {
	return &Reconciler{rendered: make(map[string]int)}
}

// Reconcile diffs the rendered set against the required window of the
// filtered/sorted sequence and returns the minimal edit script. Operations
// are ordered Removes, Moves, Adds, each group in ascending index order so
// a consumer can apply them in a single pass.
//
// Ids rendered under a previous catalog generation that no longer exist in
// seq simply fall out as Removes. Calling Reconcile twice with unchanged
// inputs yields an empty script the second time.
func (r *Reconciler) Reconcile(seq []string, win domain.Range) []domain.ReconcileOp {
	if win.Start < 0 {
		win.Start = 0
	}
	if win.End > len(seq) {
		win.End = len(seq)
	}

	required := make(map[string]int, win.Len())
	for i := win.Start; i < win.End; i++ {
		required[seq[i]] = i
	}

	var removes, moves, adds []domain.ReconcileOp

	for id, pos := range r.rendered {
		if _, ok := required[id]; !ok {
			removes = append(removes, domain.ReconcileOp{Kind: domain.OpRemove, ID: id, Index: pos})
		}
	}
	for id, pos := range required {
		old, ok := r.rendered[id]
		switch {
		case !ok:
			adds = append(adds, domain.ReconcileOp{Kind: domain.OpAdd, ID: id, Index: pos})
		case old != pos:
			moves = append(moves, domain.ReconcileOp{Kind: domain.OpMove, ID: id, Index: pos})
		}
	}

	byIndex := func(ops []domain.ReconcileOp) {
		sort.Slice(ops, func(a, b int) bool {
			if ops[a].Index != ops[b].Index {
				return ops[a].Index < ops[b].Index
			}
			return ops[a].ID < ops[b].ID
		})
	}
	byIndex(removes)
	byIndex(moves)
	byIndex(adds)

	r.rendered = required

	ops := make([]domain.ReconcileOp, 0, len(removes)+len(moves)+len(adds))
	ops = append(ops, removes...)
	ops = append(ops, moves...)
	ops = append(ops, adds...)
	return ops
}

// Rendered reports whether an id is currently in the rendered set.
func (r *Reconciler) Rendered(id string) bool {
	_, ok := r.rendered[id]
	return ok
}

// RenderedCount returns the size of the rendered set.
func (r *Reconciler) RenderedCount() int { return len(r.rendered) }

// Reset empties the rendered set without emitting operations. Used only
// when the presentation tree itself was torn down.
func (r *Reconciler) Reset() {
	r.rendered = make(map[string]int)
}
