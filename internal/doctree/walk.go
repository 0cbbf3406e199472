package doctree

// WalkStatus tells Walk how to proceed after a callback.
type WalkStatus int

const (
	// WalkContinue descends into the node's children.
	WalkContinue WalkStatus = iota + 1
	// WalkSkipChildren skips the children of the node being entered.
	// The exit callback for that node still runs.
	WalkSkipChildren
	// WalkStop ends the walk without an error.
	WalkStop
)

// Walker is called twice per node: once on entry (entering=true) and
// once on exit. A non-nil error aborts the walk.
type Walker func(n *Node, entering bool) (WalkStatus, error)

// Walk performs a depth-first walk of n in document order.
func Walk(n *Node, walker Walker) error {
	_, err := walkHelper(n, walker)
	return err
}

func walkHelper(n *Node, walker Walker) (WalkStatus, error) {
	status, err := walker(n, true)
	if err != nil || status == WalkStop {
		return WalkStop, err
	}
	if status != WalkSkipChildren {
		for _, c := range n.Children {
			if st, err := walkHelper(c, walker); err != nil || st == WalkStop {
				return WalkStop, err
			}
		}
	}
	status, err = walker(n, false)
	if err != nil || status == WalkStop {
		return WalkStop, err
	}
	return WalkContinue, nil
}
