package domain

// Queue is an ordered, indexable sequence of queued tracks. Insertion
// order is play order; positional removal is the only operation that
// changes relative priority, and it never reorders the remaining
// elements. The zero value is ready to use. Queue is not safe for
// concurrent use; GuildSession serializes access to it.
type Queue struct {
	entries []QueuedTrack
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.entries)
}

// IsEmpty reports whether the queue holds no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.entries) == 0
}

// PushBack appends a track to the tail of the queue.
func (q *Queue) PushBack(track QueuedTrack) {
	q.entries = append(q.entries, track)
}

// PushFront inserts a track at the head of the queue.
func (q *Queue) PushFront(track QueuedTrack) {
	q.entries = append([]QueuedTrack{track}, q.entries...)
}

// PopFront removes and returns the head of the queue, or nil if the
// queue is empty.
func (q *Queue) PopFront() *QueuedTrack {
	if len(q.entries) == 0 {
		return nil
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return &head
}

// At returns a copy of the track at the given 0-based index, or nil if
// the index is out of bounds.
func (q *Queue) At(index int) *QueuedTrack {
	if index < 0 || index >= len(q.entries) {
		return nil
	}
	entry := q.entries[index]
	return &entry
}

// RemoveAt removes and returns the track at the given 0-based index.
// Returns nil if the index is out of bounds.
func (q *Queue) RemoveAt(index int) *QueuedTrack {
	if index < 0 || index >= len(q.entries) {
		return nil
	}
	removed := q.entries[index]
	q.entries = append(q.entries[:index], q.entries[index+1:]...)
	return &removed
}

// List returns a copy of all queued tracks in play order.
func (q *Queue) List() []QueuedTrack {
	out := make([]QueuedTrack, len(q.entries))
	copy(out, q.entries)
	return out
}

// Clear removes all tracks and returns how many were removed.
func (q *Queue) Clear() int {
	n := len(q.entries)
	q.entries = nil
	return n
}
