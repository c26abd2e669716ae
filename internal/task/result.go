package task

// Result is the outcome of one task or batch-member invocation.
// Callers must inspect Ok before reading Output; treating a failed result as
// success is a defect.
type Result[T any] struct {
	Ok     bool
	Output T
	Err    error
}

// OkResult wraps a successful output.
func OkResult[T any](output T) Result[T] {
	return Result[T]{Ok: true, Output: output}
}

// ErrResult wraps a failure.
func ErrResult[T any](err error) Result[T] {
	return Result[T]{Ok: false, Err: err}
}
