package service

import "errors"

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
	ErrUpload       = errors.New("upload")       // 400
	ErrInternal     = errors.New("internal")     // 500
)

// Error is what every service operation fails with. Msg is safe to show to
// the client; Err is the underlying cause and only goes to the log.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newErr(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func validation(msg string) *Error { return newErr(ErrValidation, msg, nil) }

func unauthorized(msg string) *Error { return newErr(ErrUnauthorized, msg, nil) }

func internal(cause error) *Error {
	return newErr(ErrInternal, "internal server error", cause)
}
