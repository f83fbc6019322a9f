package port_reader

import (
	"context"
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
	"github.com/rs/zerolog"
)

// Initialize a new P1Port.
func NewP1Port(port string, baudrate uint, logger zerolog.Logger) *P1Port {
	return &P1Port{
		port:     port,
		baudrate: baudrate,
		logger:   logger.With().Str("component", "p1port").Str("port", port).Logger(),
	}
}

// Open the connection to the P1 port. Reads block until at least one byte
// is available.
func (p *P1Port) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := serial.Open(p.options())
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	p.logger.Info().Uint("baudrate", p.baudrate).Msg("Connected to P1 port")
	return &loggedPort{ReadWriteCloser: port, logger: p.logger}, nil
}

func (p *P1Port) options() serial.OpenOptions {
	return serial.OpenOptions{
		PortName:        p.port,
		BaudRate:        p.baudrate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}
}

type loggedPort struct {
	io.ReadWriteCloser
	logger zerolog.Logger
}

func (l *loggedPort) Close() error {
	err := l.ReadWriteCloser.Close()
	l.logger.Info().Msg("Disconnected from P1 port")
	return err
}
