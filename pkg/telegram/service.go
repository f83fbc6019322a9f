package telegram

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/NotCoffee418/p1plus_monitor/pkg/checksum"
	"github.com/NotCoffee418/p1plus_monitor/pkg/obis"
	"github.com/rs/zerolog"
)

func NewFramer(r io.Reader, table obis.Table, logger zerolog.Logger) *Framer {
	return &Framer{
		reader: bufio.NewReader(r),
		table:  table,
		logger: logger.With().Str("component", "framer").Logger(),
	}
}

func (f *Framer) State() State {
	return f.state
}

// Next reads lines until a telegram is complete and returns it with its
// checksum result. Invalid telegrams are returned too; the caller decides
// what to do with them.
//
// Cancellation is checked before each line read. On cancellation the partial
// telegram is dropped and ctx.Err() is returned. Read errors are returned
// wrapped in ErrStreamTerminated.
func (f *Framer) Next(ctx context.Context) (*Telegram, checksum.Result, error) {
	if f.state == Complete {
		f.state = AwaitingStart
	}

	for {
		if f.pending != nil {
			err := f.pending
			f.pending = nil
			f.reset()
			return nil, checksum.Result{}, fmt.Errorf("%w: %w", ErrStreamTerminated, err)
		}
		if err := ctx.Err(); err != nil {
			f.reset()
			return nil, checksum.Result{}, err
		}

		line, err := f.reader.ReadBytes('\n')
		if err != nil {
			if len(line) == 0 {
				f.reset()
				return nil, checksum.Result{}, fmt.Errorf("%w: %w", ErrStreamTerminated, err)
			}
			// The last line lacks its newline; handle it before reporting err.
			f.pending = err
		}

		if telegram, result, ok := f.handle(line); ok {
			return telegram, result, nil
		}
	}
}

// handle feeds one line to the state machine and reports whether it
// completed a telegram.
func (f *Framer) handle(line []byte) (*Telegram, checksum.Result, bool) {
	if !isASCII(line) {
		if f.state == Framing {
			f.logger.Warn().
				Err(ErrMalformedLine).
				Int("bytes", len(f.raw)).
				Msg("Non-ASCII line, dropping telegram")
		}
		f.reset()
		return nil, checksum.Result{}, false
	}

	if line[0] == StartMarker {
		if f.state == Framing {
			f.logger.Warn().Int("bytes", len(f.raw)).Msg("Start marker inside telegram, restarting")
		}
		f.raw = append(make([]byte, 0, 1024), line...)
		f.fields = obis.Fields{}
		f.state = Framing
		return nil, checksum.Result{}, false
	}

	if f.state != Framing {
		return nil, checksum.Result{}, false
	}

	text := strings.TrimSpace(string(line))
	if strings.HasPrefix(text, string(checksum.EndMarker)) {
		trailer := text[1:]
		telegram := &Telegram{Raw: f.raw, Fields: f.fields, Trailer: trailer}
		result := checksum.Validate(telegram.Raw, trailer)
		f.raw, f.fields = nil, nil
		f.state = Complete
		return telegram, result, true
	}

	f.raw = append(f.raw, line...)
	f.decode(text)
	return nil, checksum.Result{}, false
}

func (f *Framer) decode(line string) {
	spec, value, ok, err := f.table.DecodeLine(line)
	if err != nil {
		f.logger.Debug().Err(err).Str("line", line).Msg("Skipping field")
		return
	}
	if ok {
		f.fields[spec.Name] = value
	}
}

func (f *Framer) reset() {
	f.raw, f.fields = nil, nil
	f.state = AwaitingStart
}

func isASCII(line []byte) bool {
	return bytes.IndexFunc(line, func(r rune) bool { return r > 0x7f }) < 0
}
