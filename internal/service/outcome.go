package service

// outcome is the result of one record write: a value or the reason it failed.
type outcome[T any] struct {
	value T
	err   error
}

func succeeded[T any](v T) outcome[T] { return outcome[T]{value: v} }

func failed[T any](err error) outcome[T] { return outcome[T]{err: err} }

func (o outcome[T]) ok() bool { return o.err == nil }
