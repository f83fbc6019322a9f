package congestion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	got := Parse("EAN871687140012345678;230; ;;-5;;1.5")
	want := Record{
		Reference:      "EAN871687140012345678",
		VoltageLimitL1: "230",
		ExportLimitL1:  "-5",
		ExportLimitL3:  "1.5",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, got.ActiveLimits())
	assert.Equal(t, Curtailed, got.State())
}

func TestParseAllEmptyIsNormal(t *testing.T) {
	record := Parse("EAN0000000000000;;;;;;")
	assert.Equal(t, "EAN0000000000000", record.Reference)
	assert.Zero(t, record.ActiveLimits())
	assert.Equal(t, Normal, record.State())
}

func TestParseSingleLimitIsCurtailed(t *testing.T) {
	for i := 1; i < numParts; i++ {
		parts := []string{"ID", "", "", "", "", "", ""}
		parts[i] = "10"
		message := parts[0]
		for _, p := range parts[1:] {
			message += Delimiter + p
		}
		assert.Equal(t, Curtailed, Parse(message).State(), message)
	}
}

func TestParseWrongPartCount(t *testing.T) {
	for _, message := range []string{
		"",
		"no delimiter",
		"ID;1;2;3;4;5",
		"ID;1;2;3;4;5;6;7",
		"ID;;;;;",
		"ID;;;;;;;",
	} {
		record := Parse(message)
		assert.Equal(t, Record{}, record, message)
		assert.Equal(t, Normal, record.State(), message)
	}
}

func TestDemoAlternates(t *testing.T) {
	var demo Demo
	assert.Equal(t, DemoCurtailedMessage, demo.Next())
	assert.Equal(t, DemoNormalMessage, demo.Next())
	assert.Equal(t, DemoCurtailedMessage, demo.Next())

	assert.Equal(t, Curtailed, Parse(DemoCurtailedMessage).State())
	assert.Equal(t, Normal, Parse(DemoNormalMessage).State())
}

func TestActuationStateString(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "curtailed", Curtailed.String())
}
