package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animator/internal/infra/credentials"
)

func newKeyCommand(ctx *commandContext) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored Gemini API key",
	}
	keyCmd.AddCommand(newKeySetCommand(ctx))
	return keyCmd
}

func newKeySetCommand(ctx *commandContext) *cobra.Command {
	var keyFlag string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the Gemini API key in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key, source := strings.TrimSpace(keyFlag), credentials.SourceCLI
			if key == "" {
				key, source = strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), credentials.SourceEnv
			}
			if key == "" {
				return errors.New("GEMINI API key is required via --key or GEMINI_API_KEY")
			}
			if !cfg.HasDatabase() {
				return errors.New("DATABASE_URL is required to store the key")
			}

			services, err := ctx.build(cmd.Context(), cfg, ctx.logger(cfg))
			if err != nil {
				return err
			}
			defer services.Close()

			execCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := services.Credentials.Save(execCtx, key, source); err != nil {
				return fmt.Errorf("persist gemini api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GEMINI API key stored successfully")
			return nil
		},
	}

	cmd.Flags().StringVar(&keyFlag, "key", "", "API key (falls back to GEMINI_API_KEY)")
	return cmd
}
