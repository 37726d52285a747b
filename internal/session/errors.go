package session

import (
	"errors"
	"fmt"
)

// ErrNoResponse is reported when the provider returns no text and no error.
var ErrNoResponse = errors.New("no response generated")

// ConfigError reports a missing or unusable credential. It is fatal at
// startup.
type ConfigError struct {
	// Reason describes what is wrong with the configuration.
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// ConnectionError reports that the provider handle could not be built.
// It is fatal at startup.
type ConnectionError struct {
	// Provider names the backend that failed, e.g. "gemini".
	Provider string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("failed to initialize client: %v", e.Err)
	}
	return fmt.Sprintf("failed to initialize %s client: %v", e.Provider, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// RequestError is a failure of a single generation call. Sessions never
// return it; it is folded into a failed Response so one bad turn cannot end
// the conversation.
type RequestError struct {
	Model string
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Error generating response: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
