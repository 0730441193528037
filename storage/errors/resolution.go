package errors

import (
	stderrors "errors"

	"github.com/aptos-labs/modcache/model/bytecode"
)

// NewDeserializeErrorf constructs a new CodedError which indicates that a
// bytecode unit's serialized form is malformed.  Deterministic for a given
// byte string; never cached.
func NewDeserializeErrorf(msg string, args ...interface{}) CodedError {
	return NewCodedError(
		ErrCodeDeserializeError,
		"failed to deserialize bytecode: "+msg,
		args...)
}

func IsDeserializeError(err error) bool {
	return HasErrorCode(err, ErrCodeDeserializeError)
}

// NewVerificationErrorf constructs a new CodedError which indicates that a
// bytecode unit failed local or linkage verification.
func NewVerificationErrorf(msg string, args ...interface{}) CodedError {
	return NewCodedError(
		ErrCodeVerificationError,
		"bytecode verification failed: "+msg,
		args...)
}

func IsVerificationError(err error) bool {
	return HasErrorCode(err, ErrCodeVerificationError)
}

// NewLinkerErrorf constructs a new CodedError which indicates that a
// referenced dependency does not exist in any cache tier or in the base
// view.
func NewLinkerErrorf(
	missing bytecode.ModuleKey,
	msg string,
	args ...interface{},
) CodedError {
	return NewCodedError(
		ErrCodeLinkerError,
		"linker error: missing module ("+missing.String()+"): "+msg,
		args...)
}

func IsLinkerError(err error) bool {
	return HasErrorCode(err, ErrCodeLinkerError)
}

// NewCyclicDependencyErrorf constructs a new CodedError which indicates that
// the dependency graph reachable from requester contains a cycle.  The named
// key is the original requester of the resolution, not the back-edge target.
func NewCyclicDependencyErrorf(
	requester bytecode.ModuleKey,
	msg string,
	args ...interface{},
) CodedError {
	return NewCodedError(
		ErrCodeCyclicDependencyError,
		"cyclic module dependency reachable from ("+requester.String()+"): "+msg,
		args...)
}

func IsCyclicDependencyError(err error) bool {
	return HasErrorCode(err, ErrCodeCyclicDependencyError)
}

// NewInvalidatedReadErrorf constructs a new CodedError which indicates that
// a captured module read no longer matches the cache's current content.  The
// external scheduler treats this as a retryable conflict.
func NewInvalidatedReadErrorf(
	key bytecode.ModuleKey,
	msg string,
	args ...interface{},
) CodedError {
	return NewCodedError(
		ErrCodeInvalidatedReadError,
		"invalidated module read ("+key.String()+"): "+msg,
		args...)
}

func IsInvalidatedReadError(err error) bool {
	return HasErrorCode(err, ErrCodeInvalidatedReadError)
}

// NewStorageUnavailableFailure constructs a new CodedFailure which indicates
// that the base view could not serve a read.  Fatal to the current attempt;
// retry scheduling is the external scheduler's job.
func NewStorageUnavailableFailure(err error) CodedFailure {
	return WrapCodedFailure(
		FailureCodeStorageUnavailableFailure,
		err,
		"base view read failed")
}

func IsStorageUnavailableFailure(err error) bool {
	var failure CodedFailure
	if !stderrors.As(err, &failure) {
		return false
	}
	return failure.FailureCode() == FailureCodeStorageUnavailableFailure
}

// NewCacheImplementationFailure constructs a new CodedFailure which
// indicates an internal invariant violation in the caching layer itself.
func NewCacheImplementationFailure(
	msg string,
	args ...interface{},
) CodedFailure {
	return NewCodedFailure(
		FailureCodeCacheImplementationFailure,
		msg,
		args...)
}
