package domain

// OrderedSet keeps distinct values in insertion order with constant time
// membership checks.
type OrderedSet[T comparable] struct {
	items []T
	index map[T]struct{}
}

func NewOrderedSet[T comparable](items ...T) OrderedSet[T] {
	s := OrderedSet[T]{}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item if missing and reports whether it was added.
func (s *OrderedSet[T]) Add(item T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

func (s OrderedSet[T]) Contains(item T) bool {
	_, ok := s.index[item]
	return ok
}

func (s OrderedSet[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the values in insertion order.
func (s OrderedSet[T]) Items() []T {
	items := make([]T, len(s.items))
	copy(items, s.items)
	return items
}
