package checksum

import (
	"strconv"
	"strings"

	"github.com/sigurn/crc16"
)

// EndMarker starts the trailer line. It is covered by the checksum.
const EndMarker = '!'

// CRC16/ARC, as used by DSMR P1 telegrams.
var table = crc16.MakeTable(crc16.CRC16_ARC)

// Calculate returns the checksum of body followed by the end marker.
func Calculate(body []byte) uint16 {
	data := make([]byte, 0, len(body)+1)
	data = append(data, body...)
	return crc16.Checksum(append(data, EndMarker), table)
}

// Validate checks body, everything before the end marker line, against the
// hex trailer that follows the marker. An empty trailer skips the check.
func Validate(body []byte, trailer string) Result {
	trailer = strings.TrimSpace(trailer)
	if trailer == "" {
		return Result{Status: Skipped}
	}

	calculated := Calculate(body)
	given, err := strconv.ParseUint(trailer, 16, 16)
	if err != nil {
		return Result{Status: Invalid, Calculated: calculated, Trailer: trailer}
	}

	result := Result{Given: uint16(given), Calculated: calculated, Status: Valid}
	if result.Given != calculated {
		result.Status = Invalid
	}
	return result
}
