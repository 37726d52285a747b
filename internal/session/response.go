package session

// NoResponseMessage is the failure reason used when the provider returns an
// empty result without an explicit error.
const NoResponseMessage = "Sorry, I couldn't generate a response. Please try again."

// Response is the outcome of one request: either generated text or a
// human-readable failure reason. The zero value is a failure with an empty
// reason and is never produced by a Session.
type Response struct {
	text   string
	reason string
	err    error
	ok     bool
}

// Success wraps generated text.
func Success(text string) Response {
	return Response{text: text, ok: true}
}

// Failure wraps a failure reason.
func Failure(reason string) Response {
	return Response{reason: reason}
}

// failed builds a failure that keeps the underlying error for callers that
// want to inspect it with errors.Is/As.
func failed(err error) Response {
	return Response{reason: err.Error(), err: err}
}

// OK reports whether the request produced text.
func (r Response) OK() bool { return r.ok }

// Text returns the generated text, or "" for a failure.
func (r Response) Text() string { return r.text }

// Reason returns the failure reason, or "" for a success.
func (r Response) Reason() string { return r.reason }

// Err returns the error behind a failure, if one was recorded.
func (r Response) Err() error { return r.err }

// String returns what should be shown to the operator.
func (r Response) String() string {
	if r.ok {
		return r.text
	}
	return r.reason
}
