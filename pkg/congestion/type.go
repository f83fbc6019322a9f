package congestion

import "fmt"

// ActuationState is the indicator state derived from a Record.
type ActuationState uint8

const (
	Normal ActuationState = iota
	Curtailed
)

func (s ActuationState) String() string {
	switch s {
	case Normal:
		return "normal"
	case Curtailed:
		return "curtailed"
	default:
		return fmt.Sprintf("actuation(%d)", uint8(s))
	}
}

// Record is a curtailment message from the grid operator. An empty limit is
// absent, not zero.
type Record struct {
	Reference      string `json:"reference"`
	VoltageLimitL1 string `json:"voltage_limit_l1"`
	VoltageLimitL2 string `json:"voltage_limit_l2"`
	VoltageLimitL3 string `json:"voltage_limit_l3"`
	ExportLimitL1  string `json:"export_limit_l1"`
	ExportLimitL2  string `json:"export_limit_l2"`
	ExportLimitL3  string `json:"export_limit_l3"`
}

// Demo alternates between a curtailed and a normal canned message.
type Demo struct {
	last string
}
