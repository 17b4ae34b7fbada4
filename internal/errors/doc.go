// Package errors defines error types for the NANDA bridge SDK.
//
// This package provides structured error types that wrap different failure
// scenarios when supervising the Python worker process. All error types
// support error unwrapping and can be checked using errors.Is, errors.As,
// and errors.AsType.
package errors
