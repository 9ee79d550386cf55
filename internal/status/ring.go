package status

// ring is a fixed-capacity history of loop readings. Once full, each push
// overwrites the oldest entry. Not safe for concurrent use; the Tracker
// synchronizes access.
type ring struct {
	buf   []Reading
	head  int // next write position
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Reading, capacity)}
}

func (r *ring) push(v Reading) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// items returns a copy of the stored readings, newest first.
func (r *ring) items() []Reading {
	if r.count == 0 {
		return nil
	}
	out := make([]Reading, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head-1-i+len(r.buf))%len(r.buf)]
	}
	return out
}

func (r *ring) len() int {
	return r.count
}
