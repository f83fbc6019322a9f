package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/NotCoffee418/p1plus_monitor/pkg/checksum"
	"github.com/NotCoffee418/p1plus_monitor/pkg/congestion"
	"github.com/NotCoffee418/p1plus_monitor/pkg/obis"
	"github.com/NotCoffee418/p1plus_monitor/pkg/reading"
	"github.com/NotCoffee418/p1plus_monitor/pkg/telegram"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type decodedTelegram struct {
	Checksum   string            `json:"checksum"`
	Given      string            `json:"given,omitempty"`
	Calculated string            `json:"calculated,omitempty"`
	Identifier string            `json:"identifier"`
	Congestion congestion.Record `json:"congestion"`
	State      string            `json:"state"`
	Reading    *reading.Reading  `json:"reading"`
}

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode captured telegrams and print them as JSON",
	Long: `Frames the telegrams in a capture file, or stdin when no file is given,
and prints one JSON document per telegram with its checksum result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd, "warn")

		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		n, err := decodeTelegrams(cmd.Context(), in, cmd.OutOrStdout(), logger)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no telegrams found")
		}
		return nil
	},
}

// decodeTelegrams writes every framed telegram in r to w and returns how
// many were written. Invalid telegrams are written too.
func decodeTelegrams(ctx context.Context, r io.Reader, w io.Writer, logger zerolog.Logger) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	framer := telegram.NewFramer(r, obis.DefaultTable, logger)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	n := 0
	for {
		t, result, err := framer.Next(ctx)
		if errors.Is(err, telegram.ErrStreamTerminated) && errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		rd, err := reading.FromFields(t.Fields)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not build typed reading")
		}
		record := congestion.Parse(t.Fields[obis.FieldTextMessage].Text)

		out := decodedTelegram{
			Checksum:   result.Status.String(),
			Identifier: reading.DecodeIdentifier(t.Fields[obis.FieldIdentifier].Text),
			Congestion: record,
			State:      record.State().String(),
			Reading:    rd,
		}
		switch {
		case result.Status == checksum.Skipped:
		case result.Trailer != "":
			out.Given = result.Trailer
			out.Calculated = fmt.Sprintf("%04X", result.Calculated)
		default:
			out.Given = fmt.Sprintf("%04X", result.Given)
			out.Calculated = fmt.Sprintf("%04X", result.Calculated)
		}
		if err := enc.Encode(out); err != nil {
			return n, err
		}
		n++
	}
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
