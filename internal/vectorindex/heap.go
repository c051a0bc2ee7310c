package vectorindex

// candidate is a scored vector held by the top-k selector.
type candidate struct {
	id         string
	similarity float32
	index      int
}

// worse reports whether a ranks below b: lower similarity, or equal
// similarity and a lexically larger id.
func worse(a, b *candidate) bool {
	if a.similarity != b.similarity {
		return a.similarity < b.similarity
	}
	return a.id > b.id
}

// topK implements a min-heap keyed on rank, so the root is the weakest
// candidate currently kept.
type topK []*candidate

func (h topK) Len() int { return len(h) }

func (h topK) Less(i, j int) bool { return worse(h[i], h[j]) }

func (h topK) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *topK) Push(x interface{}) {
	item := x.(*candidate)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *topK) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// Peek returns the weakest kept candidate without removing it.
func (h topK) Peek() *candidate {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
