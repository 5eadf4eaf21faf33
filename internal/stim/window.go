package stim

import "math"

// Window is the half-open index range [Lo, Hi) of events taken into account
// at a given time. Hi-1 is always the most recent event at or before that time.
type Window struct {
	Lo, Hi int
}

// Clip builds the window ending at event last and holding at most k events.
// last < 0 yields the empty window; k <= 0 keeps the full prefix.
func Clip(last, k int) Window {
	if last < 0 {
		return Window{}
	}
	lo := 0
	if k > 0 && last-k+1 > 0 {
		lo = last - k + 1
	}
	return Window{Lo: lo, Hi: last + 1}
}

func (w Window) Len() int { return w.Hi - w.Lo }

func (w Window) Empty() bool { return w.Hi <= w.Lo }

// Last is the index of the most recent event in the window, or -1.
func (w Window) Last() int {
	if w.Empty() {
		return -1
	}
	return w.Hi - 1
}

func (w Window) Indices() []int {
	out := make([]int, 0, w.Len())
	for i := w.Lo; i < w.Hi; i++ {
		out = append(out, i)
	}
	return out
}

// Cursor answers LastBefore queries in amortised O(1) for non-decreasing query
// times, the common pattern during integration sweeps. A query earlier than the
// previous one falls back to binary search. A Cursor is not safe for
// concurrent use; the History it reads is.
type Cursor struct {
	h    *History
	last int
	at   float64
}

func (c *Cursor) LastBefore(t float64) int {
	if t < c.at {
		c.last = c.h.LastBefore(t)
		c.at = t
		return c.last
	}
	n := c.h.Len()
	for c.last+1 < n && c.h.times[c.last+1] <= t {
		c.last++
	}
	c.at = t
	return c.last
}

func (c *Cursor) WindowBefore(t float64, k int) Window {
	return Clip(c.LastBefore(t), k)
}

// Reset rewinds the cursor to before the first event.
func (c *Cursor) Reset() {
	c.last = -1
	c.at = math.Inf(-1)
}
