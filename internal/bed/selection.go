package bed

import "sort"

// Selection is an insertion-ordered set of bed IDs. The zero value is empty
// and ready to use; mutating methods return a new Selection.
type Selection struct {
	ids []int64
}

// NewSelection builds a selection, ignoring duplicate ids.
func NewSelection(ids ...int64) Selection {
	var s Selection
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

func (s Selection) Len() int { return len(s.ids) }

func (s Selection) Contains(id int64) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// IDs returns the ids in selection order.
func (s Selection) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// Sorted returns the ids in ascending order.
func (s Selection) Sorted() []int64 {
	out := s.IDs()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Selection) with(id int64) Selection {
	return Selection{ids: append(s.IDs(), id)}
}

func (s Selection) without(id int64) Selection {
	out := make([]int64, 0, len(s.ids))
	for _, v := range s.ids {
		if v != id {
			out = append(out, v)
		}
	}
	return Selection{ids: out}
}

func find(beds []Bed, id int64) (Bed, bool) {
	for _, b := range beds {
		if b.ID == id {
			return b, true
		}
	}
	return Bed{}, false
}

// Toggle selects or deselects id against the current bed list.
// Deselecting always succeeds. On any rejection the original selection is
// returned unchanged together with the reason.
func Toggle(beds []Bed, selected Selection, capacity int, id int64) (Selection, error) {
	if selected.Contains(id) {
		return selected.without(id), nil
	}

	b, ok := find(beds, id)
	if !ok {
		return selected, ErrUnknownBed
	}
	if !b.Available {
		return selected, ErrBedUnavailable
	}
	if selected.Len() >= capacity {
		return selected, ErrCapacityReached
	}
	return selected.with(id), nil
}

// Partition groups beds by tier, keeping the fetched order inside each group.
func Partition(beds []Bed) Tiers {
	var t Tiers
	for _, b := range beds {
		switch b.Tier {
		case TierUpper:
			t.Upper = append(t.Upper, b)
		case TierLower:
			t.Lower = append(t.Lower, b)
		}
	}
	return t
}

// Reconcile drops selected ids that are not present in beds.
// dropped reports whether anything was removed.
func Reconcile(beds []Bed, selected Selection) (kept Selection, dropped bool) {
	for _, id := range selected.ids {
		if _, ok := find(beds, id); ok {
			kept.ids = append(kept.ids, id)
		} else {
			dropped = true
		}
	}
	return kept, dropped
}
