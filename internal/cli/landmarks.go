package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rxrprep/pkg/landmark"
	"github.com/matzehuels/rxrprep/pkg/rxr"
	"github.com/matzehuels/rxrprep/pkg/sim/skybox"
)

// defaultSkyboxDir is where the Matterport3D simulator expects its scans.
const defaultSkyboxDir = "data/v1/scans"

// landmarksOpts holds the command-line flags for the landmarks command.
type landmarksOpts struct {
	inputs        []string
	outDir        string
	maxDim        int
	format        string
	skyboxDir     string
	progressEvery int
	dryRun        bool
}

// landmarksCommand creates the landmarks command for rendering landmark crops.
func (c *CLI) landmarksCommand() *cobra.Command {
	opts := landmarksOpts{
		outDir:        landmark.DefaultOutDir,
		maxDim:        landmark.DefaultMaxDim,
		format:        landmark.DefaultFormat,
		skyboxDir:     defaultSkyboxDir,
		progressEvery: landmark.DefaultProgressEvery,
	}

	cmd := &cobra.Command{
		Use:   "landmarks [annotations.jsonl.gz...]",
		Short: "Render first-person crops of RxR landmarks",
		Long: `Render first-person crops of RxR landmarks.

Reads gzip-compressed JSON-lines landmark annotations (the three silver
landmark files of the RxR release by default), groups the landmarks by field
of view and renders each one from its panorama. Images are written to

  {outdir}/{split}/{language}/{instruction_id}/{index}-{phrase}.{format}

Any failure aborts the run. Files already written are kept; a rerun
overwrites them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyLandmarksConfig(cmd, &opts)
			if len(args) > 0 {
				opts.inputs = args
			}
			if err := landmark.ValidateFormat(opts.format); err != nil {
				return err
			}
			return c.runLandmarks(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "outdir", "o", opts.outDir, "output directory")
	cmd.Flags().IntVar(&opts.maxDim, "max-dim", opts.maxDim, "larger image dimension in pixels")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "image format: png (default), jpg")
	cmd.Flags().StringVar(&opts.skyboxDir, "skybox-dir", opts.skyboxDir, "Matterport3D scans directory with skybox images")
	cmd.Flags().IntVar(&opts.progressEvery, "progress-every", opts.progressEvery, "log progress every N landmarks")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the rendering plan without rendering")

	return cmd
}

func (c *CLI) applyLandmarksConfig(cmd *cobra.Command, opts *landmarksOpts) {
	cfg := c.settings().Landmarks
	opts.inputs = landmark.DefaultInputs
	if len(cfg.Inputs) > 0 {
		opts.inputs = cfg.Inputs
	}
	overrideString(cmd, "outdir", &opts.outDir, cfg.OutDir)
	overrideInt(cmd, "max-dim", &opts.maxDim, cfg.MaxDim)
	overrideString(cmd, "format", &opts.format, cfg.Format)
	overrideString(cmd, "skybox-dir", &opts.skyboxDir, cfg.SkyboxDir)
}

// runLandmarks collects the rendering plan and executes it.
func (c *CLI) runLandmarks(ctx context.Context, opts landmarksOpts) error {
	prog := newProgress(c.Logger)
	for _, in := range opts.inputs {
		c.Logger.Debug("Reading annotations", "path", in)
	}
	plan, err := landmark.Collect(rxr.Instructions(opts.inputs...))
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Collected %d landmarks in %d fov buckets", plan.Total, len(plan.Buckets)))

	if opts.dryRun {
		return printPlan(plan, opts.maxDim)
	}

	stats, err := landmark.Run(ctx, plan, landmark.Options{
		OutDir:        opts.outDir,
		Format:        opts.format,
		MaxDim:        opts.maxDim,
		ProgressEvery: opts.progressEvery,
		Engine:        skybox.New(opts.skyboxDir, c.Logger),
		Logger:        c.Logger,
	})
	if err != nil {
		return err
	}

	printSuccess("Rendered %d landmarks in %s", stats.Rendered, stats.Elapsed.Round(time.Millisecond))
	printFile(opts.outDir)
	return nil
}

// printPlan lists every bucket with its camera resolution.
func printPlan(plan *landmark.Plan, maxDim int) error {
	for _, b := range plan.Buckets {
		cam, err := landmark.CameraFor(b.FOV, maxDim)
		if err != nil {
			return err
		}
		printKeyValue(b.FOV.String(), fmt.Sprintf("%dx%d  %d jobs", cam.Width, cam.Height, len(b.Jobs)))
	}
	printInfo("%d landmarks in %d buckets", plan.Total, len(plan.Buckets))
	return nil
}
