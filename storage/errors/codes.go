package errors

import "fmt"

type ErrorCode uint16

func (ec ErrorCode) String() string {
	return fmt.Sprintf("[Error Code: %d]", ec)
}

type FailureCode uint16

func (fc FailureCode) String() string {
	return fmt.Sprintf("[Failure Code: %d]", fc)
}

const (
	// failures are non-deterministic faults; they abort the current attempt
	// and are never converted into a transaction status.
	FailureCodeUnknownFailure            FailureCode = 2000
	FailureCodeStorageUnavailableFailure FailureCode = 2001
	FailureCodeCacheImplementationFailure FailureCode = 2002
)

const (
	// resolution errors are deterministic functions of on-chain bytecode;
	// re-resolving the same key yields the same error.
	ErrCodeDeserializeError      ErrorCode = 1200
	ErrCodeVerificationError     ErrorCode = 1201
	ErrCodeLinkerError           ErrorCode = 1202
	ErrCodeCyclicDependencyError ErrorCode = 1203
	ErrCodeInvalidatedReadError  ErrorCode = 1204
)
