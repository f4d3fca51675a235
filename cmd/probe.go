package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/framestitch/internal/blob"
	"github.com/lehigh-university-libraries/framestitch/internal/media"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

type probeReport struct {
	File        string `yaml:"file"`
	MediaType   string `yaml:"media_type,omitempty"`
	ContentType string `yaml:"content_type,omitempty"`
	Width       int    `yaml:"width,omitempty"`
	Height      int    `yaml:"height,omitempty"`
	Error       string `yaml:"error,omitempty"`
}

func newProbeCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe FILE...",
		Short: "Report the type and pixel dimensions of media files",
		Long: `Classifies each file the way an upload would be classified and
resolves its intrinsic dimensions. Videos are probed with exiftool, which
must be on the PATH.`,
		Example: `  framestitch probe frame.png clip.mp4`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := probeFiles(cmd.Context(), args, timeout)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(reports)
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", media.DefaultTimeout, "Per file resolution timeout")

	return cmd
}

func probeFiles(ctx context.Context, paths []string, timeout time.Duration) ([]probeReport, error) {
	registry := blob.New()
	videoProber := media.NewExifToolProber()
	defer videoProber.Close()
	resolver := media.NewResolver(registry, media.WithTimeout(timeout), media.WithProber(models.MediaTypeVideo, videoProber))

	reports := make([]probeReport, 0, len(paths))
	for _, path := range paths {
		report := probeReport{File: filepath.Base(path)}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		mediaType, contentType, ok := media.Classify("", data)
		report.ContentType = contentType
		if !ok {
			report.Error = "unsupported file type"
			reports = append(reports, report)
			continue
		}
		report.MediaType = string(mediaType)

		ref := registry.Create("probe", data, contentType)
		dims, err := resolver.Resolve(ctx, ref, mediaType)
		registry.Revoke(ref)
		if err != nil {
			slog.Debug("Probe failed", "file", path, "err", err)
			report.Error = err.Error()
		} else {
			report.Width = dims.Width
			report.Height = dims.Height
		}
		reports = append(reports, report)
	}
	return reports, nil
}
