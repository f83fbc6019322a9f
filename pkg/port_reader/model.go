package port_reader

import "github.com/rs/zerolog"

// P1Port opens the P1 serial port of the meter. DSMR 5 meters send 8N1 at
// 115200 baud.
type P1Port struct {
	port     string
	baudrate uint
	logger   zerolog.Logger
}
