package audio

import "sync"

// Ring holds the most recent depth chunks of captured audio so a reception
// can include the samples that arrived just before the carrier was noticed.
// Safe for one continuous writer and any number of snapshot readers.
type Ring struct {
	mu     sync.Mutex
	chunks []Chunk
	depth  int
}

func NewRing(depth int) *Ring {
	return &Ring{
		chunks: make([]Chunk, 0, depth),
		depth:  depth,
	}
}

// Push appends a chunk, evicting the oldest when the ring is full.
func (r *Ring) Push(c Chunk) {
	r.mu.Lock()
	r.chunks = append(r.chunks, c)
	if len(r.chunks) > r.depth {
		copy(r.chunks, r.chunks[1:])
		r.chunks = r.chunks[:r.depth]
	}
	r.mu.Unlock()
}

// Snapshot returns a copy of the current contents, oldest first.
func (r *Ring) Snapshot() []Chunk {
	r.mu.Lock()
	out := make([]Chunk, len(r.chunks))
	copy(out, r.chunks)
	r.mu.Unlock()
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	n := len(r.chunks)
	r.mu.Unlock()
	return n
}
