package atomics

// Pair is a cell holding two pointers that may be compared and swapped as
// one, see [Pair.BoolDCas]. The zero value holds (nil, nil).
//
// The pair is stored as an immutable node, replaced on every update by a
// single-word CAS, so the double-word operation is lock-free on the native
// backend, and available on every platform.
type Pair[T any] struct {
	_ noCopy
	n *pairNode[T]
}

type pairNode[T any] struct {
	a, b *T
}

// Load returns both pointers, as observed at a single instant.
func (x *Pair[T]) Load() (a, b *T) {
	if n := LoadPtr(&x.n); n != nil {
		return n.a, n.b
	}
	return nil, nil
}

// Store sets both pointers.
func (x *Pair[T]) Store(a, b *T) {
	SetPtr(&x.n, &pairNode[T]{a, b})
}

// BoolDCas stores (a, b) if the pair currently holds (expectA, expectB),
// reporting whether it did. A mismatch on either pointer leaves the pair
// unchanged.
func (x *Pair[T]) BoolDCas(expectA, expectB, a, b *T) bool {
	next := &pairNode[T]{a, b}
	for {
		n := LoadPtr(&x.n)
		var curA, curB *T
		if n != nil {
			curA, curB = n.a, n.b
		}
		if curA != expectA || curB != expectB {
			return false
		}
		if BoolCasPtr(&x.n, n, next) {
			return true
		}
	}
}

// noCopy is checked by go vet's copylocks.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
