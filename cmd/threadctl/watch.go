package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"threadspire/internal/cache"
	"threadspire/internal/notifications"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print change events published by a running server",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.RedisURL == "" {
		return errors.New("watch needs REDIS_URL")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	out := cmd.OutOrStdout()
	n := notifications.NewNotifier(rdb)
	if err := n.Subscribe(ctx, func(ev notifications.Event) {
		if format == formatJSON {
			_ = encodeLine(out, ev)
			return
		}
		fmt.Fprintln(out, describe(ev))
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, Ctrl+C to stop\n", notifications.Channel)
	<-ctx.Done()
	return nil
}

func describe(ev notifications.Event) string {
	line := fmt.Sprintf("%s %v", ev.At.Format("15:04:05"), ev.Kinds)
	if len(ev.ThreadIDs) > 0 {
		line += fmt.Sprintf(" threads=%v", ev.ThreadIDs)
	}
	if len(ev.CollectionIDs) > 0 {
		line += fmt.Sprintf(" collections=%v", ev.CollectionIDs)
	}
	return line + fmt.Sprintf(" (%d threads, %d collections)", ev.Threads, ev.Collections)
}
