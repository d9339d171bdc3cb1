package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"animator/internal/media"
	"animator/internal/progress"
	"animator/internal/storage"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		imagePath   string
		dataURLFile string
		prompt      string
		outDir      string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a video from an image and a prompt",
		Example: `  animate generate --image cat.png --prompt "the cat starts dancing"
  animate generate --data-url-file capture.txt --prompt "wave hello"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			img, err := loadImage(imagePath, dataURLFile)
			if err != nil {
				return err
			}
			req, err := media.NewGenerationRequest(img, prompt)
			if err != nil {
				return err
			}

			logger := ctx.logger(cfg)
			services, err := ctx.build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer services.Close()

			stopProgress := startProgress(cmd.Context(), cmd.ErrOrStderr())
			artifact, err := services.Animator.Generate(cmd.Context(), req)
			stopProgress()
			if err != nil {
				return err
			}
			defer func() { _ = services.Blobs.Release(artifact.ID) }()

			dir := strings.TrimSpace(outDir)
			if dir == "" {
				dir = cfg.StoragePath
			}
			store, err := storage.NewFileStore(dir)
			if err != nil {
				return err
			}
			key, err := store.SaveArtifact(cmd.Context(), artifact)
			if err != nil {
				return err
			}
			path, err := store.Path(key)
			if err != nil {
				return err
			}
			logger.Info().Str("artifact_id", artifact.ID).Str("path", path).Msg("cli: video saved")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to a PNG, JPEG or WEBP picture")
	cmd.Flags().StringVar(&dataURLFile, "data-url-file", "", "File holding a camera capture as a data: URL")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "What should happen in the video")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory for the downloaded video (defaults to STORAGE_PATH)")
	cmd.MarkFlagsMutuallyExclusive("image", "data-url-file")

	return cmd
}

func loadImage(imagePath, dataURLFile string) (*media.Image, error) {
	switch {
	case strings.TrimSpace(imagePath) != "":
		return media.FromFile(imagePath)
	case strings.TrimSpace(dataURLFile) != "":
		raw, err := os.ReadFile(dataURLFile)
		if err != nil {
			return nil, fmt.Errorf("read data url file: %w", err)
		}
		return media.FromDataURL(string(raw))
	default:
		return nil, errors.New("either --image or --data-url-file is required")
	}
}

// startProgress rotates the waiting messages on interactive terminals only.
func startProgress(parent context.Context, w io.Writer) func() {
	if !isTerminal(w) {
		return func() {}
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		progress.Rotate(ctx, w, progress.DefaultEvery)
	}()
	return func() {
		cancel()
		<-done
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
