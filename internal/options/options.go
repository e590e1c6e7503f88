// Package options implements the functional options shared by the codec
// constructor and the per-call serialization options.
package options

// Option configures a target of type T, usually a pointer to a settings
// struct.
type Option[T any] interface {
	apply(T) error
}

// Func is an Option backed by a function.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an option that may reject its input, e.g. a thread count
// below one.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an option that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply applies opts to target in order and stops at the first error. Nil
// options are skipped so callers can pass conditional options inline.
//
// Parameters:
//   - target: Settings to modify
//   - opts: Options to apply
//
// Returns:
//   - error: First error returned by an option
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if f, ok := opt.(*Func[T]); ok && (f == nil || f.applyFunc == nil) {
			continue
		}
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
