package obis

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field names used outside the decoder.
const (
	FieldTimestamp   = "timestamp"
	FieldIdentifier  = "identifier"
	FieldTextMessage = "text_message"
	FieldCurrentL1   = "current_l1"
	FieldCurrentL2   = "current_l2"
	FieldCurrentL3   = "current_l3"
)

// DefaultTable lists the references a P1 port of a DSMR 5 meter reports.
// Lines are matched against it in order, first prefix match wins.
var DefaultTable = Table{
	{"1-3:0.2.8", "dsmr_version", TransformInteger, 0},
	{"0-0:1.0.0", FieldTimestamp, TransformTimestamp, 0},
	{"0-0:96.1.1", FieldIdentifier, TransformIdentity, 0},
	{"1-0:1.8.1", "energy_import_t1", TransformScaled, 1000},
	{"1-0:1.8.2", "energy_import_t2", TransformScaled, 1000},
	{"1-0:2.8.1", "energy_export_t1", TransformScaled, 1000},
	{"1-0:2.8.2", "energy_export_t2", TransformScaled, 1000},
	{"0-0:96.14.0", "tariff_indicator", TransformInteger, 0},
	{"1-0:1.7.0", "power_import", TransformScaled, 1000},
	{"1-0:2.7.0", "power_export", TransformScaled, 1000},
	{"0-0:96.7.21", "num_power_failures", TransformInteger, 0},
	{"0-0:96.7.9", "num_long_power_failures", TransformInteger, 0},
	{"1-0:32.32.0", "num_voltage_sags_l1", TransformInteger, 0},
	{"1-0:52.32.0", "num_voltage_sags_l2", TransformInteger, 0},
	{"1-0:72.32.0", "num_voltage_sags_l3", TransformInteger, 0},
	{"1-0:32.36.0", "num_voltage_swells_l1", TransformInteger, 0},
	{"1-0:52.36.0", "num_voltage_swells_l2", TransformInteger, 0},
	{"1-0:72.36.0", "num_voltage_swells_l3", TransformInteger, 0},
	{"0-0:96.13.0", FieldTextMessage, TransformHexText, 0},
	{"1-0:32.7.0", "voltage_l1", TransformScaled, 10},
	{"1-0:52.7.0", "voltage_l2", TransformScaled, 10},
	{"1-0:72.7.0", "voltage_l3", TransformScaled, 10},
	{"1-0:31.7.0", FieldCurrentL1, TransformInteger, 0},
	{"1-0:51.7.0", FieldCurrentL2, TransformInteger, 0},
	{"1-0:71.7.0", FieldCurrentL3, TransformInteger, 0},
	{"1-0:21.7.0", "power_import_l1", TransformScaled, 1000},
	{"1-0:41.7.0", "power_import_l2", TransformScaled, 1000},
	{"1-0:61.7.0", "power_import_l3", TransformScaled, 1000},
	{"1-0:22.7.0", "power_export_l1", TransformScaled, 1000},
	{"1-0:42.7.0", "power_export_l2", TransformScaled, 1000},
	{"1-0:62.7.0", "power_export_l3", TransformScaled, 1000},
}

// Table is an ordered list of field specs.
type Table []FieldSpec

var (
	valuePattern     = regexp.MustCompile(`\(([a-fA-F0-9.]*)`)
	timestampPattern = regexp.MustCompile(`\(([a-fA-F0-9.]*[A-Za-z]?)`)
)

// Lookup returns the first spec whose reference prefixes line.
func (t Table) Lookup(line string) (FieldSpec, bool) {
	for _, spec := range t {
		if strings.HasPrefix(line, spec.Reference) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// DecodeLine decodes one telegram line. ok is false when no reference matches
// or the line carries no parenthesized value; err is set when the value fails
// its transform.
func (t Table) DecodeLine(line string) (spec FieldSpec, value Value, ok bool, err error) {
	spec, ok = t.Lookup(line)
	if !ok {
		return spec, Value{}, false, nil
	}

	pattern := valuePattern
	if spec.Transform == TransformTimestamp {
		pattern = timestampPattern
	}
	match := pattern.FindStringSubmatch(line)
	if match == nil {
		return spec, Value{}, false, nil
	}

	value, err = Transform(spec, match[1])
	if err != nil {
		return spec, Value{}, true, fmt.Errorf("%s (%s): %w", spec.Name, spec.Reference, err)
	}
	return spec, value, true, nil
}

// Transform applies the spec's transform to raw.
func Transform(spec FieldSpec, raw string) (Value, error) {
	switch spec.Transform {
	case TransformInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: integer %q", ErrMalformedValue, raw)
		}
		return Value{Kind: KindInteger, Int: n}, nil

	case TransformScaled:
		n, err := Scale(raw, spec.Multiplier)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindScaledInteger, Int: n}, nil

	case TransformHexText:
		text, err := DecodeHexText(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindText, Text: text}, nil

	case TransformTimestamp:
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTimestamp, Time: ts}, nil

	case TransformIdentity:
		return Value{Kind: KindRawString, Text: raw}, nil
	}
	return Value{}, fmt.Errorf("unknown transform %s", spec.Transform)
}

// Scale parses a decimal and multiplies it, truncating toward zero.
func Scale(raw string, multiplier int64) (int64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: decimal %q", ErrMalformedValue, raw)
	}
	return int64(f * float64(multiplier)), nil
}

// DecodeHexText decodes a hex encoded ASCII message.
func DecodeHexText(raw string) (string, error) {
	b, err := hex.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: hex text: %v", ErrMalformedValue, err)
	}
	for _, c := range b {
		if c > 0x7f {
			return "", fmt.Errorf("%w: non-ascii byte 0x%02x in text", ErrMalformedValue, c)
		}
	}
	return string(b), nil
}

// ParseTimestamp parses YYMMDDhhmmss followed by a DST flag and returns the
// instant in UTC. A 'W' flag means UTC+1, anything else UTC+2.
func ParseTimestamp(raw string) (time.Time, error) {
	if len(raw) < 12 {
		return time.Time{}, fmt.Errorf("%w: timestamp %q too short", ErrMalformedValue, raw)
	}
	digits := raw[:12]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformedValue, raw)
		}
	}

	offset := 2
	if strings.HasSuffix(raw, "W") {
		offset = 1
	}
	zone := time.FixedZone(fmt.Sprintf("UTC+%d", offset), offset*3600)

	// Years are always 20YY. ParseInLocation rejects out of range components
	// such as month 13 or hour 24.
	ts, err := time.ParseInLocation("20060102150405", "20"+digits, zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedValue, raw, err)
	}
	return ts.UTC(), nil
}
