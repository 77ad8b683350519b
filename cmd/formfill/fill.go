package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/formfill/internal/config"
	"github.com/JaimeStill/formfill/internal/driver"
)

func newFillCmd() *cobra.Command {
	var resume, form, save string

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill an application form interactively",
		Long: "Extracts the resume into a knowledge index, answers every field of the form " +
			"from it, and revises the answers until you accept them.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runFill(ctx, resume, form, save)
		},
	}

	cmd.Flags().StringVarP(&resume, "resume", "r", "", "resume document key or path")
	cmd.Flags().StringVarP(&form, "form", "f", "", "application form document key or path")
	cmd.Flags().StringVarP(&save, "save", "o", "", "document key to save the accepted form under")
	cmd.MarkFlagRequired("resume")
	cmd.MarkFlagRequired("form")

	return cmd
}

func runFill(ctx context.Context, resume, form, save string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Shutdown(cfg.ShutdownTimeoutDuration())

	if err := app.Start(); err != nil {
		return err
	}

	term := driver.NewTerminal(os.Stdin, os.Stdout)

	result, err := app.Fill(ctx, resume, form, term)
	if err != nil {
		return err
	}

	term.Print(result)

	if save != "" {
		return app.Save(ctx, save, result)
	}
	return nil
}
