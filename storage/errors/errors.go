package errors

import (
	"errors"
	"fmt"
)

// CodedError is a deterministic resolution error.  Every error surfaced by
// this subsystem to the interpreter implements it.
type CodedError interface {
	Code() ErrorCode

	Unwrap() error
	error
}

type codedError struct {
	code ErrorCode
	err  error
}

func NewCodedError(
	code ErrorCode,
	format string,
	args ...interface{},
) CodedError {
	return codedError{
		code: code,
		err:  fmt.Errorf(format, args...),
	}
}

// WrapCodedError wraps err into a CodedError, preserving it for errors.Is /
// errors.As chains.
func WrapCodedError(
	code ErrorCode,
	err error,
	prefix string,
) CodedError {
	return codedError{
		code: code,
		err:  fmt.Errorf("%s: %w", prefix, err),
	}
}

func (e codedError) Code() ErrorCode {
	return e.code
}

func (e codedError) Unwrap() error {
	return e.err
}

func (e codedError) Error() string {
	return fmt.Sprintf("%s %s", e.code, e.err)
}

// HasErrorCode reports whether any error in err's chain is a CodedError
// carrying the given code.
func HasErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var coded CodedError
		if !errors.As(err, &coded) {
			return false
		}
		if coded.Code() == code {
			return true
		}
		err = coded.Unwrap()
	}
	return false
}

// CodedFailure is a non-deterministic fault (e.g. the base view is
// unreachable).  Failures are fatal to the current attempt and must never be
// converted into a deterministic transaction outcome.
type CodedFailure interface {
	FailureCode() FailureCode

	Unwrap() error
	error
}

type codedFailure struct {
	code FailureCode
	err  error
}

func NewCodedFailure(
	code FailureCode,
	format string,
	args ...interface{},
) CodedFailure {
	return codedFailure{
		code: code,
		err:  fmt.Errorf(format, args...),
	}
}

func WrapCodedFailure(
	code FailureCode,
	err error,
	prefix string,
) CodedFailure {
	return codedFailure{
		code: code,
		err:  fmt.Errorf("%s: %w", prefix, err),
	}
}

func (f codedFailure) FailureCode() FailureCode {
	return f.code
}

func (f codedFailure) Unwrap() error {
	return f.err
}

func (f codedFailure) Error() string {
	return fmt.Sprintf("%s %s", f.code, f.err)
}

// IsFailure reports whether any error in err's chain is a CodedFailure.
func IsFailure(err error) bool {
	var failure CodedFailure
	return errors.As(err, &failure)
}

// SplitErrorTypes splits err into its deterministic-error and failure
// halves.  A failure anywhere in the chain dominates.
func SplitErrorTypes(err error) (CodedError, CodedFailure) {
	if err == nil {
		return nil, nil
	}

	var failure CodedFailure
	if errors.As(err, &failure) {
		return nil, failure
	}

	var coded CodedError
	if errors.As(err, &coded) {
		return coded, nil
	}

	return nil, WrapCodedFailure(
		FailureCodeUnknownFailure,
		err,
		"unknown error")
}
