package obis

import (
	"errors"
	"fmt"
	"time"
)

var ErrMalformedValue = errors.New("malformed value")

// TransformKind selects how the raw text of a field is turned into a Value.
type TransformKind uint8

const (
	TransformInteger TransformKind = iota
	TransformScaled
	TransformHexText
	TransformTimestamp
	TransformIdentity
)

func (k TransformKind) String() string {
	switch k {
	case TransformInteger:
		return "integer"
	case TransformScaled:
		return "scaled"
	case TransformHexText:
		return "hex_text"
	case TransformTimestamp:
		return "timestamp"
	case TransformIdentity:
		return "identity"
	default:
		return fmt.Sprintf("transform(%d)", uint8(k))
	}
}

// FieldSpec maps an OBIS reference to a field name and its transform.
// Multiplier is only used by TransformScaled.
type FieldSpec struct {
	Reference  string
	Name       string
	Transform  TransformKind
	Multiplier int64
}

type ValueKind uint8

const (
	KindInteger ValueKind = iota
	KindScaledInteger
	KindText
	KindTimestamp
	KindRawString
)

// Value is a decoded field. Only the member matching Kind is set.
type Value struct {
	Kind ValueKind
	Int  int64
	Text string
	Time time.Time
}

// Native returns the Go value carried by v: int64, string or time.Time.
func (v Value) Native() any {
	switch v.Kind {
	case KindInteger, KindScaledInteger:
		return v.Int
	case KindTimestamp:
		return v.Time
	default:
		return v.Text
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInteger, KindScaledInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindTimestamp:
		return v.Time.Format(time.RFC3339)
	default:
		return v.Text
	}
}

// Fields holds the decoded fields of one telegram keyed by field name.
type Fields map[string]Value
