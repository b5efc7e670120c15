package worker

// stack is the LIFO used for non-recursive tree walks. Popping a stack
// filled in visit order yields every directory before its ancestors.
type stack[T any] struct {
	items []T
}

func (s *stack[T]) push(v T) {
	s.items = append(s.items, v)
}

func (s *stack[T]) pop() T {
	n := len(s.items) - 1
	v := s.items[n]
	var zero T
	s.items[n] = zero
	s.items = s.items[:n]
	return v
}

func (s *stack[T]) empty() bool {
	return len(s.items) == 0
}
