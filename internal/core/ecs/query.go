package ecs

// Each2 visits entities that have both A and B, walking the smaller store.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for i, id := range sa.ids {
			if b, ok := sb.Get(id); ok {
				fn(id, sa.values[i], b)
			}
		}
		return
	}
	for i, id := range sb.ids {
		if a, ok := sa.Get(id); ok {
			fn(id, a, sb.values[i])
		}
	}
}

// Each3 visits entities that have A, B and C. It walks A's dense order so
// callers can pick the driving store.
func Each3[A, B, C any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], sc *PtrComponentStore[C], fn func(EntityID, *A, *B, *C)) {
	for i, id := range sa.ids {
		b, ok := sb.Get(id)
		if !ok {
			continue
		}
		c, ok := sc.Get(id)
		if !ok {
			continue
		}
		fn(id, sa.values[i], b, c)
	}
}
