package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artmixer/atelier/internal/domain"
	"github.com/artmixer/atelier/internal/transfer"
	"github.com/artmixer/atelier/internal/util"
)

type submitOptions struct {
	ContentPath   string
	StylePath     string
	StyleWeight   float64
	ContentWeight float64
	NumSteps      int
	LayerWeights  string
}

func parseSubmitFlags(args []string) (submitOptions, error) {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts submitOptions
	fs.StringVar(&opts.ContentPath, "content", "", "Content image path (required)")
	fs.StringVar(&opts.StylePath, "style", "", "Style image path (required)")
	fs.Float64Var(&opts.StyleWeight, "style-weight", 0, "Style weight (default from service)")
	fs.Float64Var(&opts.ContentWeight, "content-weight", 0, "Content weight (default from service)")
	fs.IntVar(&opts.NumSteps, "steps", 0, "Optimization steps (default from service)")
	fs.StringVar(&opts.LayerWeights, "layer-weights", "", "Per-layer style weights as a JSON object")

	if err := fs.Parse(args); err != nil {
		return submitOptions{}, err
	}
	return opts, nil
}

func runSubmit(cmdCtx *commandContext, args []string) error {
	opts, err := parseSubmitFlags(args)
	if err != nil {
		return err
	}

	params := domain.TransferParams{
		StyleWeight:   opts.StyleWeight,
		ContentWeight: opts.ContentWeight,
		NumSteps:      opts.NumSteps,
	}
	if opts.LayerWeights != "" {
		if jsonErr := json.Unmarshal([]byte(opts.LayerWeights), &params.LayerWeights); jsonErr != nil {
			return fmt.Errorf("parse --layer-weights: %w", jsonErr)
		}
	}

	content, err := openAsset(opts.ContentPath)
	if err != nil {
		return err
	}
	if content.Reader != nil {
		defer closeAsset(cmdCtx, opts.ContentPath, content)
	}
	style, err := openAsset(opts.StylePath)
	if err != nil {
		return err
	}
	if style.Reader != nil {
		defer closeAsset(cmdCtx, opts.StylePath, style)
	}

	job, updates, err := cmdCtx.App.Transfer.Submit(cmdCtx.Ctx, content, style, params)
	if err != nil {
		return err
	}
	if writeErr := writef(os.Stdout, "submitted job %s\n", job.ID); writeErr != nil {
		return writeErr
	}

	return streamUpdates(updates)
}

type watchOptions struct {
	JobID string
}

func parseWatchFlags(args []string) (watchOptions, error) {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts watchOptions
	fs.StringVar(&opts.JobID, "job", "", "Job id to watch (required)")

	if err := fs.Parse(args); err != nil {
		return watchOptions{}, err
	}
	if opts.JobID == "" {
		return watchOptions{}, fmt.Errorf("--job is required")
	}
	return opts, nil
}

func runWatch(cmdCtx *commandContext, args []string) error {
	opts, err := parseWatchFlags(args)
	if err != nil {
		return err
	}
	return streamUpdates(cmdCtx.App.Transfer.Tracker().Track(cmdCtx.Ctx, opts.JobID))
}

// streamUpdates prints each status observation until the stream closes
// and reports the terminal outcome.
func streamUpdates(updates <-chan domain.Job) error {
	var last domain.Job
	for job := range updates {
		last = job
		line := fmt.Sprintf("[%s] %3.0f%%", job.Status, job.Progress*100)
		if job.StyleLoss != nil || job.ContentLoss != nil {
			line += fmt.Sprintf("  style loss %s  content loss %s",
				util.FormatValue(job.StyleLoss), util.FormatValue(job.ContentLoss))
		}
		if err := writeln(os.Stdout, line); err != nil {
			return err
		}
	}

	switch last.Status {
	case domain.JobStatusCompleted:
		return writef(os.Stdout, "done: %s\n", last.ResultURL)
	case domain.JobStatusFailed:
		return fmt.Errorf("job failed: %s", last.Error)
	default:
		return fmt.Errorf("tracking stopped before the job finished")
	}
}

func openAsset(path string) (transfer.Asset, error) {
	if path == "" {
		return transfer.Asset{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return transfer.Asset{}, fmt.Errorf("open %s: %w", path, err)
	}
	return transfer.Asset{Name: filepath.Base(path), Reader: f}, nil
}

func closeAsset(cmdCtx *commandContext, path string, a transfer.Asset) {
	if closer, ok := a.Reader.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			cmdCtx.Logger.Warn("close asset failed", "path", path, "error", err)
		}
	}
}
