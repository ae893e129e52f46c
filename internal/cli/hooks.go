package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rxrprep/pkg/observability"
)

// logHooks reports renderer and builder events as debug log lines.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.RenderHooks = logHooks{}
	_ observability.BuildHooks  = logHooks{}
)

// registerHooks installs logHooks as the process-wide hooks.
func (c *CLI) registerHooks() {
	h := logHooks{logger: c.Logger}
	observability.SetRenderHooks(h)
	observability.SetBuildHooks(h)
}

func (h logHooks) OnBucketStart(_ context.Context, hfov, vfov float64, width, height, jobs int) {
	h.logger.Debug("Bucket started", "hfov", hfov, "vfov", vfov, "width", width, "height", height, "jobs", jobs)
}

func (h logHooks) OnBucketComplete(_ context.Context, hfov, vfov float64, rendered int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("Bucket failed", "hfov", hfov, "vfov", vfov, "rendered", rendered, "err", err)
		return
	}
	h.logger.Debug("Bucket done", "hfov", hfov, "vfov", vfov, "rendered", rendered, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnFrameWritten(_ context.Context, path string, d time.Duration) {
	h.logger.Debug("Frame written", "path", path, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnInstructionFound(_ context.Context, split string, instructionID int64, scanned int) {
	h.logger.Debug("Instruction matched", "split", split, "instruction_id", instructionID, "scanned", scanned)
}

func (h logHooks) OnBuildComplete(_ context.Context, instructionID int64, frames int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("Build failed", "instruction_id", instructionID, "err", err)
		return
	}
	h.logger.Debug("Build done", "instruction_id", instructionID, "frames", frames, "took", d.Round(time.Millisecond))
}
