package editor

// Sortable reorders one List through pointer-style drag events. Press
// marks the dragged item, Hover moves it relative to the hovered
// item's vertical midpoint, HoverPastEnd appends it, Release ends the
// drag and reports whether the order changed. The caller runs Reindex
// after a drag that moved something.
type Sortable struct {
	list          List
	requireHandle bool
	dragging      int
	origin        int
}

// NewSortable builds a drag engine over list. With requireHandle set,
// only presses on an item's dedicated handle start a drag; otherwise
// the whole item is draggable.
func NewSortable(list List, requireHandle bool) *Sortable {
	return &Sortable{list: list, requireHandle: requireHandle, dragging: -1, origin: -1}
}

// Press starts dragging the item at index. Presses outside the handle
// (when one is required) or outside the list are ignored.
func (s *Sortable) Press(index int, onHandle bool) {
	if s.requireHandle && !onHandle {
		return
	}
	if index < 0 || index >= s.list.Len() {
		return
	}
	s.dragging = index
	s.origin = index
}

// Hover reacts to the pointer crossing the item at index: the dragged
// item moves before the hovered item when the pointer is above its
// vertical midpoint, after it when below.
func (s *Sortable) Hover(index int, belowMidpoint bool) {
	if s.dragging < 0 || index == s.dragging {
		return
	}
	if index < 0 || index >= s.list.Len() {
		return
	}
	target := index
	if index > s.dragging {
		target--
	}
	if belowMidpoint {
		target++
	}
	if target == s.dragging {
		return
	}
	s.list.Move(s.dragging, target)
	s.dragging = target
}

// HoverPastEnd reacts to the pointer leaving the list past its last
// item: the dragged item is appended at the end.
func (s *Sortable) HoverPastEnd() {
	if s.dragging < 0 {
		return
	}
	last := s.list.Len() - 1
	if last < 0 || s.dragging == last {
		return
	}
	s.list.Move(s.dragging, last)
	s.dragging = last
}

// Release ends the drag and reports whether the item rests somewhere
// other than where it was picked up.
func (s *Sortable) Release() bool {
	if s.dragging < 0 {
		return false
	}
	moved := s.dragging != s.origin
	s.dragging = -1
	s.origin = -1
	return moved
}
