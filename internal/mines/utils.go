package mines

// celltodo is an intrusive FIFO of cell indices. A cell may be queued at
// most once between resets, which is what lets a single next array of
// board size hold the whole list.
type celltodo struct {
	next       []int
	head, tail int
}

func newCelltodo(size int) *celltodo {
	return &celltodo{next: make([]int, size), head: -1, tail: -1}
}

func (std *celltodo) add(i int) {
	if std.tail >= 0 {
		std.next[std.tail] = i
	} else {
		std.head = i
	}
	std.tail = i
	std.next[i] = -1
}

func (std *celltodo) pop() (i int, ok bool) {
	if std.head < 0 {
		return -1, false
	}
	i = std.head
	std.head = std.next[i]
	if std.head < 0 {
		std.tail = -1
	}
	return i, true
}
