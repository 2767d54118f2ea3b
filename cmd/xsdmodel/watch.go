package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacoelho/xsdmodel/internal/watch"
)

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [pattern...]",
		Short: "Load a schema set and reload documents as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Watch.Enabled {
				return errors.New("watching is disabled by watch.enabled")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			set, err := a.loadSet(ctx, args)
			if err != nil {
				return err
			}
			if _, err := a.reg.Preload(ctx, set...); err != nil {
				return err
			}
			w, err := watch.New(watch.Config{
				Root:     a.cfg.Catalog.Root,
				Debounce: a.cfg.Watch.Debounce,
				Logger:   a.logger,
			}, a.reg)
			if err != nil {
				return err
			}
			if err := a.printf("watching %d schemas under %s\n", len(a.reg.Models()), a.cfg.Catalog.Root); err != nil {
				return err
			}
			done := make(chan error, 1)
			go func() { done <- w.Run(ctx) }()
			for ev := range w.Events() {
				state := "valid"
				if !ev.Valid {
					state = "not-well-formed"
				}
				if ev.Op == watch.OpDiscard {
					state = "removed"
				}
				if err := a.printf("%s %s %s\n", ev.Op, ev.Identity, state); err != nil {
					stop()
				}
			}
			return <-done
		},
	}
}
