package ecs

// Removable is implemented by every component store so the Registry can
// drop an entity's data from all of them on destroy.
type Removable interface {
	Remove(id EntityID)
}

// PtrComponentStore keeps components densely packed with a sparse index by
// entity slot. Iteration follows the dense order, which only changes on
// removal (swap with last), so a tick visits entities in the same order on
// every run.
type PtrComponentStore[T any] struct {
	ids    []EntityID
	values []*T
	sparse []int32 // slot index -> dense index, -1 when absent
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		ids:    make([]EntityID, 0, 64),
		values: make([]*T, 0, 64),
	}
}

func (s *PtrComponentStore[T]) slot(id EntityID) (int, bool) {
	idx := int(id.Index())
	if idx >= len(s.sparse) {
		return 0, false
	}
	d := s.sparse[idx]
	if d < 0 || s.ids[d] != id {
		return 0, false
	}
	return int(d), true
}

func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	if d, ok := s.slot(id); ok {
		s.values[d] = c
		return
	}
	idx := int(id.Index())
	for len(s.sparse) <= idx {
		s.sparse = append(s.sparse, -1)
	}
	if d := s.sparse[idx]; d >= 0 {
		// slot still holds an older generation's data
		s.removeDense(int(d))
	}
	s.sparse[idx] = int32(len(s.ids))
	s.ids = append(s.ids, id)
	s.values = append(s.values, c)
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	d, ok := s.slot(id)
	if !ok {
		return nil, false
	}
	return s.values[d], true
}

func (s *PtrComponentStore[T]) Remove(id EntityID) {
	if d, ok := s.slot(id); ok {
		s.removeDense(d)
	}
}

func (s *PtrComponentStore[T]) removeDense(d int) {
	last := len(s.ids) - 1
	gone := s.ids[d]
	if d != last {
		s.ids[d] = s.ids[last]
		s.values[d] = s.values[last]
		s.sparse[s.ids[d].Index()] = int32(d)
	}
	s.ids[last] = 0
	s.values[last] = nil
	s.ids = s.ids[:last]
	s.values = s.values[:last]
	s.sparse[gone.Index()] = -1
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.slot(id)
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	return len(s.ids)
}

// Each visits every component in dense order. fn must not add or remove
// components of this store.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	for i, id := range s.ids {
		fn(id, s.values[i])
	}
}

// IDs returns a copy of the stored entity ids in dense order.
func (s *PtrComponentStore[T]) IDs() []EntityID {
	out := make([]EntityID, len(s.ids))
	copy(out, s.ids)
	return out
}
