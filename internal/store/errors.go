package store

import "fmt"

// OpenError reports a store file that could not be opened or
// verified. It is fatal for the whole extraction.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening store %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// QueryError reports an unexpected or missing schema object, or a
// failed query against the store. Fatal for the whole extraction.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("querying store (%s): %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// DecodeError reports a value read from the store with an
// unexpected type or shape. Fatal for the whole extraction.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding store value (%s): %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
