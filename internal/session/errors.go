package session

import "errors"

// ErrorKind classifies user-visible session failures.
type ErrorKind int

const (
	KindInputValidation ErrorKind = iota + 1
	KindDeviceAccess
	KindEmbeddingRestriction
	KindAnalysisRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputValidation:
		return "input-validation"
	case KindDeviceAccess:
		return "device-access"
	case KindEmbeddingRestriction:
		return "embedding-restriction"
	case KindAnalysisRequest:
		return "analysis-request"
	default:
		return "unknown"
	}
}

// Error carries a localized message for the user plus the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels of the same kind, so callers can write
// errors.Is(err, session.ErrInputValidation).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

var (
	ErrInputValidation      = &Error{Kind: KindInputValidation}
	ErrDeviceAccess         = &Error{Kind: KindDeviceAccess}
	ErrEmbeddingRestriction = &Error{Kind: KindEmbeddingRestriction}
	ErrAnalysisRequest      = &Error{Kind: KindAnalysisRequest}

	// ErrInvalidTransition is returned for intents the current state does not accept.
	ErrInvalidTransition = errors.New("session: intent not allowed in current state")
	// ErrStaleGeneration is returned for async results that belong to an earlier session.
	ErrStaleGeneration = errors.New("session: result belongs to a previous session")
)
