package telegram

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/NotCoffee418/p1plus_monitor/pkg/obis"
	"github.com/rs/zerolog"
)

var (
	// ErrStreamTerminated wraps the read error that ended the byte stream.
	ErrStreamTerminated = errors.New("stream terminated")
	ErrMalformedLine    = errors.New("malformed line")
)

const StartMarker = '/'

type State uint8

const (
	AwaitingStart State = iota
	Framing
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingStart:
		return "awaiting_start"
	case Framing:
		return "framing"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Telegram is one framed telegram. Raw runs from the start line through the
// CRLF that precedes the end marker line.
type Telegram struct {
	Raw     []byte
	Fields  obis.Fields
	Trailer string
}

// Framer splits a P1 byte stream into telegrams.
// It is not safe for concurrent use.
type Framer struct {
	reader *bufio.Reader
	table  obis.Table
	logger zerolog.Logger

	state  State
	raw    []byte
	fields obis.Fields
	// pending holds a read error that arrived with a final unterminated line.
	pending error
}
