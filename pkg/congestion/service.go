package congestion

import "strings"

const (
	Delimiter = ";"
	numParts  = 7

	DemoCurtailedMessage = "EAN0000000000000;;20;;;;"
	DemoNormalMessage    = "EAN0000000000000;;;;;;"
)

// Parse splits message into a Record. Anything other than exactly seven
// parts yields a record with all limits absent.
func Parse(message string) Record {
	parts := strings.Split(message, Delimiter)
	if len(parts) != numParts {
		return Record{}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return Record{
		Reference:      parts[0],
		VoltageLimitL1: parts[1],
		VoltageLimitL2: parts[2],
		VoltageLimitL3: parts[3],
		ExportLimitL1:  parts[4],
		ExportLimitL2:  parts[5],
		ExportLimitL3:  parts[6],
	}
}

// Limits returns the six limits in message order.
func (r Record) Limits() [6]string {
	return [6]string{
		r.VoltageLimitL1, r.VoltageLimitL2, r.VoltageLimitL3,
		r.ExportLimitL1, r.ExportLimitL2, r.ExportLimitL3,
	}
}

func (r Record) ActiveLimits() int {
	n := 0
	for _, limit := range r.Limits() {
		if limit != "" {
			n++
		}
	}
	return n
}

func (r Record) State() ActuationState {
	if r.ActiveLimits() > 0 {
		return Curtailed
	}
	return Normal
}

// Next returns the message to use instead of the meter's. The first call
// returns the curtailed message.
func (d *Demo) Next() string {
	if d.last == DemoCurtailedMessage {
		d.last = DemoNormalMessage
	} else {
		d.last = DemoCurtailedMessage
	}
	return d.last
}
