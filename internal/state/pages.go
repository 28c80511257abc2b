package state

// Paginated is an ordered result set loaded page by page from a cursor-based
// endpoint. The in-flight flag prevents a second concurrent fetch for the
// same list; new data appends at the cursor position and never overwrites
// loaded items.
type Paginated[T any] struct {
	Items    []T
	Total    int
	Cursor   int // selected row, owned by the view that renders this list
	InFlight bool
	Gen      uint64 // generation that issued the pending fetch

	loaded bool // at least one page has arrived
}

// HasMore reports whether another page remains to be fetched.
func (p *Paginated[T]) HasMore() bool {
	return !p.loaded || len(p.Items) < p.Total
}

// NextOffset is the cursor for the next page: pages always append at the end
// of what is loaded.
func (p *Paginated[T]) NextOffset() int {
	return len(p.Items)
}

// StartFetch marks a fetch in flight for the given view generation. Returns
// false when a fetch is already pending or the list is complete, in which
// case no request should be issued.
func (p *Paginated[T]) StartFetch(gen uint64) bool {
	if p.InFlight || !p.HasMore() {
		return false
	}
	p.InFlight = true
	p.Gen = gen
	return true
}

// AbortFetch clears the in-flight flag after a failed request.
func (p *Paginated[T]) AbortFetch() {
	p.InFlight = false
}

// AppendPage attaches a fetched page. Pages arriving for any offset other
// than the current cursor are dropped: results append in order with no gaps
// and no duplicates.
func (p *Paginated[T]) AppendPage(items []T, total, offset int) bool {
	p.InFlight = false
	if offset != len(p.Items) {
		return false
	}
	p.Items = append(p.Items, items...)
	p.Total = total
	p.loaded = true
	return true
}

// Reset discards everything, returning the list to its never-loaded state.
func (p *Paginated[T]) Reset() {
	*p = Paginated[T]{}
}

// Loaded reports whether at least one page has arrived.
func (p *Paginated[T]) Loaded() bool {
	return p.loaded
}

// MoveCursor shifts the selected row by delta, clamped to the loaded items.
func (p *Paginated[T]) MoveCursor(delta int) {
	p.Cursor += delta
	if p.Cursor < 0 {
		p.Cursor = 0
	}
	if max := len(p.Items) - 1; p.Cursor > max {
		if max < 0 {
			max = 0
		}
		p.Cursor = max
	}
}

// Selected returns the item under the cursor.
func (p *Paginated[T]) Selected() (T, bool) {
	var zero T
	if p.Cursor < 0 || p.Cursor >= len(p.Items) {
		return zero, false
	}
	return p.Items[p.Cursor], true
}

// NearEnd reports whether the cursor is within margin rows of the last loaded
// item, the trigger for fetching the next page.
func (p *Paginated[T]) NearEnd(margin int) bool {
	return len(p.Items)-p.Cursor <= margin
}
