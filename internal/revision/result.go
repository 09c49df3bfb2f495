package revision

// Result carries a computed value together with whether it came from the
// normal path or from a fallback. Reason is set only for fallbacks.
type Result[T any] struct {
	value    T
	fallback bool
	reason   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Fallback[T any](v T, reason error) Result[T] {
	return Result[T]{value: v, fallback: true, reason: reason}
}

func (r Result[T]) Value() T { return r.value }

func (r Result[T]) IsFallback() bool { return r.fallback }

func (r Result[T]) Reason() error { return r.reason }
