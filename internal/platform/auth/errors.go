package auth

import "errors"

// Authentication failure taxonomy. Resolution failures are never retried and
// are surfaced immediately; handlers map all of them to an unauthenticated
// response without exposing which step failed beyond the message here.
var (
	// ErrCredentialMissing: no Authorization header was presented.
	ErrCredentialMissing = errors.New("credential missing")
	// ErrCredentialMalformed: the header does not carry a well-formed
	// bearer credential. Rejected before any cryptographic verification.
	ErrCredentialMalformed = errors.New("credential malformed")
	// ErrCredentialInvalid: signature or expiry verification failed.
	ErrCredentialInvalid = errors.New("credential invalid")
	// ErrSessionInvalid: the credential verified but no active, unexpired,
	// unrevoked session matches it.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrSubjectNotFound: the embedded subject no longer exists.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrSubjectInactive: the subject exists but is deactivated. A valid
	// credential is not self-sufficient; subject state can invalidate it.
	ErrSubjectInactive = errors.New("subject inactive")
)
