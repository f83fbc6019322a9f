package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NotCoffee418/p1plus_monitor/pkg/listener"
	"github.com/NotCoffee418/p1plus_monitor/pkg/session"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the update stream of a running monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		logger := newLogger(cmd, "info")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		return listener.New(host, logger).Run(ctx, func(update session.Update) {
			fmt.Fprintln(out, formatUpdate(update))
		})
	},
}

func formatUpdate(update session.Update) string {
	line := fmt.Sprintf("%s %s L1=%dA L2=%dA L3=%dA %s",
		update.ReceivedAt.Local().Format("15:04:05"),
		update.Identifier,
		update.CurrentL1, update.CurrentL2, update.CurrentL3,
		update.State(),
	)
	if update.Curtailed {
		line += fmt.Sprintf(" (%d limits)", update.Limits.ActiveLimits())
	}
	if update.Demo {
		line += " [demo]"
	}
	return line
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("host", "localhost:9039", "Address of the monitor API")
}
