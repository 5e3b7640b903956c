package domain

// OpKind distinguishes reconcile operations.
type OpKind int

const (
	// OpRemove detaches an item from the presentation tree
	OpRemove OpKind = iota
	// OpMove repositions an item already in the tree
	OpMove
	// OpAdd inserts a new item at Index
	OpAdd
)

func (k OpKind) String() string {
	switch k {
	case OpRemove:
		return "remove"
	case OpMove:
		return "move"
	default:
		return "add"
	}
}

// ReconcileOp is one presentation-tree edit. Index is the item's absolute
// position in the filtered/sorted sequence; with ops emitted in ascending
// Index order a consumer can apply Adds in a single pass.
type ReconcileOp struct {
	Kind  OpKind
	ID    string
	Index int // Target position for Add/Move; last known position for Remove
}
