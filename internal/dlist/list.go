// Package dlist is the ordering substrate of the LRU store: a doubly
// linked list whose head is the least recently used node and whose tail
// is the most recently used one.
package dlist

// Node is a list element. Key is kept on the node because eviction starts
// from the list, not from the index map.
type Node[K comparable, V any] struct {
	Key   K
	Value V

	prev *Node[K, V]
	next *Node[K, V]
	list *List[K, V] // nil once removed
}

// Next returns the node after n (towards the tail), or nil.
func (n *Node[K, V]) Next() *Node[K, V] { return n.next }

// List is not safe for concurrent use; the owner serializes access.
type List[K comparable, V any] struct {
	head *Node[K, V]
	tail *Node[K, V]
	size int
}

func New[K comparable, V any]() *List[K, V] {
	return &List[K, V]{}
}

// Len returns the number of linked nodes.
func (l *List[K, V]) Len() int { return l.size }

// Front returns the head (least recently used) node or nil.
func (l *List[K, V]) Front() *Node[K, V] { return l.head }

// Back returns the tail (most recently used) node or nil.
func (l *List[K, V]) Back() *Node[K, V] { return l.tail }

// AddLast appends a new node at the tail and returns it.
func (l *List[K, V]) AddLast(key K, value V) *Node[K, V] {
	n := &Node[K, V]{Key: key, Value: value, list: l}
	if l.size == 0 {
		l.head = n
		l.tail = n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.size++
	return n
}

// RemoveFirst unlinks and returns the head node, or nil when empty.
func (l *List[K, V]) RemoveFirst() *Node[K, V] {
	if l.size == 0 {
		return nil
	}
	n := l.head
	l.unlink(n)
	return n
}

// MoveToEnd promotes n to the tail. No-op for nodes of other lists.
func (l *List[K, V]) MoveToEnd(n *Node[K, V]) {
	if n == nil || n.list != l || n == l.tail {
		return
	}

	// detach; n is not the tail so n.next != nil
	if n == l.head {
		l.head = n.next
		l.head.prev = nil
	} else {
		n.prev.next = n.next
		n.next.prev = n.prev
	}

	n.prev = l.tail
	n.next = nil
	l.tail.next = n
	l.tail = n
}

// Remove unlinks n. Nodes already removed or owned by another list are ignored.
func (l *List[K, V]) Remove(n *Node[K, V]) {
	if n == nil || n.list != l {
		return
	}
	l.unlink(n)
}

func (l *List[K, V]) unlink(n *Node[K, V]) {
	switch {
	case n == l.head && n == l.tail:
		l.head = nil
		l.tail = nil
	case n == l.head:
		l.head = n.next
		l.head.prev = nil
	case n == l.tail:
		l.tail = n.prev
		l.tail.next = nil
	default:
		n.prev.next = n.next
		n.next.prev = n.prev
	}
	// Clear links so stale nodes never reach back into the list.
	n.prev = nil
	n.next = nil
	n.list = nil
	l.size--
}
