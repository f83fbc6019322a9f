package obis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		line string
		name string
		want Value
	}{
		{"1-3:0.2.8(50)", "dsmr_version", Value{Kind: KindInteger, Int: 50}},
		{"1-0:1.8.1(001234.567*kWh)", "energy_import_t1", Value{Kind: KindScaledInteger, Int: 1234567}},
		{"1-0:1.7.0(01.193*kW)", "power_import", Value{Kind: KindScaledInteger, Int: 1193}},
		{"1-0:32.7.0(230.1*V)", "voltage_l1", Value{Kind: KindScaledInteger, Int: 2301}},
		{"1-0:31.7.0(012*A)", "current_l1", Value{Kind: KindInteger, Int: 12}},
		{"0-0:96.14.0(0002)", "tariff_indicator", Value{Kind: KindInteger, Int: 2}},
		{"0-0:96.1.1(4530303334303031)", "identifier", Value{Kind: KindRawString, Text: "4530303334303031"}},
		{"0-0:96.13.0(48656C6C6F)", "text_message", Value{Kind: KindText, Text: "Hello"}},
		{"0-0:96.13.0()", "text_message", Value{Kind: KindText, Text: ""}},
		{
			"0-0:1.0.0(230615123045S)", "timestamp",
			Value{Kind: KindTimestamp, Time: time.Date(2023, 6, 15, 10, 30, 45, 0, time.UTC)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			spec, value, ok, err := DefaultTable.DecodeLine(tt.line)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.name, spec.Name)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestDecodeLineUnknownReference(t *testing.T) {
	_, _, ok, err := DefaultTable.DecodeLine("0-1:24.2.1(230615120000S)(00012.345*m3)")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = DefaultTable.DecodeLine("/ISK5\\2M550T-1012")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeLineMalformed(t *testing.T) {
	for _, line := range []string{
		"1-0:1.8.1(.*kWh)",
		"1-0:31.7.0(0A2*A)",
		"0-0:96.13.0(48656C6C6)",
		"0-0:96.13.0(FF00)",
		"0-0:1.0.0(231315123045S)",
	} {
		_, _, ok, err := DefaultTable.DecodeLine(line)
		assert.True(t, ok, line)
		assert.ErrorIs(t, err, ErrMalformedValue, line)
	}
}

func TestLookupFirstPrefixWins(t *testing.T) {
	table := Table{
		{"1-0:1.8", "short", TransformIdentity, 0},
		{"1-0:1.8.1", "long", TransformIdentity, 0},
	}
	spec, ok := table.Lookup("1-0:1.8.1(000001.000*kWh)")
	require.True(t, ok)
	assert.Equal(t, "short", spec.Name)
}

func TestDefaultTableHasNoPrefixOverlap(t *testing.T) {
	for i, a := range DefaultTable {
		for j, b := range DefaultTable {
			if i == j {
				continue
			}
			// References are followed by '(' on the wire, so only a full
			// reference followed by '(' can collide.
			_, ok := Table{a}.Lookup(b.Reference + "(")
			assert.False(t, ok, "%s prefixes %s", a.Reference, b.Reference)
		}
	}
}

func TestScaleRecoversInput(t *testing.T) {
	for _, m := range []int64{10, 1000} {
		for _, raw := range []string{"000000", "000001", "123456", "999999", "004711"} {
			n, err := Scale(raw, m)
			require.NoError(t, err)
			want, err := Scale(raw, 1)
			require.NoError(t, err)
			assert.Equal(t, want, n/m, "raw %s multiplier %d", raw, m)
		}
	}
}

func TestScaleTruncatesTowardZero(t *testing.T) {
	n, err := Scale("-1.25", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)

	n, err = Scale("230.19", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2301), n)
}

func TestParseTimestampDSTFlag(t *testing.T) {
	s, err := ParseTimestamp("230615123045S")
	require.NoError(t, err)
	w, err := ParseTimestamp("230615123045W")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 6, 15, 10, 30, 45, 0, time.UTC), s)
	assert.Equal(t, time.Date(2023, 6, 15, 11, 30, 45, 0, time.UTC), w)
	assert.Equal(t, time.Hour, w.Sub(s))
}

func TestParseTimestampErrors(t *testing.T) {
	for _, raw := range []string{"", "2306151230", "23061512304XS", "230615253045S", "230632123045W"} {
		_, err := ParseTimestamp(raw)
		assert.ErrorIs(t, err, ErrMalformedValue, raw)
	}
}

func TestValueNative(t *testing.T) {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(3), Value{Kind: KindInteger, Int: 3}.Native())
	assert.Equal(t, "x", Value{Kind: KindText, Text: "x"}.Native())
	assert.Equal(t, ts, Value{Kind: KindTimestamp, Time: ts}.Native())
	assert.Equal(t, "2023-01-01T00:00:00Z", Value{Kind: KindTimestamp, Time: ts}.String())
}
