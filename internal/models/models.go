// Package models enumerates the model variants a chat session can target.
package models

import (
	"fmt"
	"strings"
)

const (
	// DefaultFast is the quick, general-purpose Gemini variant.
	DefaultFast Model = "gemini-2.5-flash"
	// DefaultCapable is the slower, more capable Gemini variant.
	DefaultCapable Model = "gemini-2.5-pro"
)

// Model is a remote model identifier, such as "gemini-2.5-flash".
type Model string

// String returns the identifier as sent to the provider.
func (m Model) String() string { return string(m) }

// Catalog holds the two model variants the operator can switch between.
type Catalog struct {
	// Fast is selected by choice "1" and is the default for new sessions.
	Fast Model `json:"fast" mapstructure:"fast_model"`
	// Capable is selected by choice "2".
	Capable Model `json:"capable" mapstructure:"capable_model"`
}

// DefaultCatalog returns the Gemini flash/pro pair.
func DefaultCatalog() Catalog {
	return Catalog{Fast: DefaultFast, Capable: DefaultCapable}
}

// Supports reports whether m is one of the catalog's models.
func (c Catalog) Supports(m Model) bool {
	return m != "" && (m == c.Fast || m == c.Capable)
}

// Choose maps a sub-choice typed at the "model" prompt to a model.
// Only "1" and "2" are valid; surrounding whitespace is ignored.
func (c Catalog) Choose(choice string) (Model, bool) {
	switch strings.TrimSpace(choice) {
	case "1":
		return c.Fast, true
	case "2":
		return c.Capable, true
	default:
		return "", false
	}
}

// Resolve turns a configured model name into a catalog model. It accepts the
// aliases "fast" and "capable" as well as either full identifier.
func (c Catalog) Resolve(name string) (Model, error) {
	switch n := strings.TrimSpace(name); strings.ToLower(n) {
	case "", "fast", "1":
		return c.Fast, nil
	case "capable", "2":
		return c.Capable, nil
	default:
		if m := Model(n); c.Supports(m) {
			return m, nil
		}
		return "", fmt.Errorf("unknown model %q (want %q or %q)", n, c.Fast, c.Capable)
	}
}

// Entry is one row of the catalog listing.
type Entry struct {
	Choice      string
	Model       Model
	Description string
}

// Entries lists the catalog in menu order.
func (c Catalog) Entries() []Entry {
	return []Entry{
		{Choice: "1", Model: c.Fast, Description: "faster, good for most tasks"},
		{Choice: "2", Model: c.Capable, Description: "more capable, slower"},
	}
}
