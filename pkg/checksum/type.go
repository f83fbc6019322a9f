package checksum

import (
	"errors"
	"fmt"
)

var ErrChecksumMismatch = errors.New("checksum mismatch")

type Status uint8

const (
	// Skipped means the telegram carried no trailer; it is accepted as is.
	Skipped Status = iota
	Valid
	Invalid
)

func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Result is the outcome of validating one telegram.
// Trailer holds the trailer text when it could not be parsed as hex.
type Result struct {
	Status     Status
	Given      uint16
	Calculated uint16
	Trailer    string
}

// OK reports whether the telegram may be forwarded.
func (r Result) OK() bool {
	return r.Status != Invalid
}

// Err returns an error wrapping ErrChecksumMismatch for invalid results.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	if r.Trailer != "" {
		return fmt.Errorf("%w: malformed trailer %q, calculated=%04X", ErrChecksumMismatch, r.Trailer, r.Calculated)
	}
	return fmt.Errorf("%w: given=%04X, calculated=%04X", ErrChecksumMismatch, r.Given, r.Calculated)
}
