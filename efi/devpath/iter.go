package devpath

// Iterator walks the nodes of a path, stopping at the sentinel. It is single
// use: once exhausted, build a new one from the Path to walk again.
//
//	it := p.Nodes()
//	for n, ok := it.Next(); ok; n, ok = it.Next() {
//	    ...
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
type Iterator struct {
	b    []byte
	off  int
	done bool
	err  error
}

// Next returns the next non-sentinel node. It returns false at the sentinel
// or on a malformed node; Err distinguishes the two.
func (it *Iterator) Next() (Node, bool) {
	if it.done {
		return Node{}, false
	}
	n, err := ReadHead(it.b[it.off:])
	if err != nil {
		it.err = err
		it.done = true
		return Node{}, false
	}
	if n.IsEnd() {
		it.done = true
		return Node{}, false
	}
	it.off += n.Len()
	return n, true
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }
