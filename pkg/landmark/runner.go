package landmark

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	"github.com/matzehuels/rxrprep/pkg/observability"
)

// DefaultProgressEvery is the number of jobs between progress reports.
const DefaultProgressEvery = 1000

// Options configures a rendering run.
type Options struct {
	OutDir        string
	Format        string // image extension, DefaultFormat when empty
	MaxDim        int    // DefaultMaxDim when zero
	ProgressEvery int    // DefaultProgressEvery when zero

	Engine Engine
	Logger *log.Logger
	Hooks  observability.RenderHooks
}

func (o *Options) setDefaults() {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.MaxDim == 0 {
		o.MaxDim = DefaultMaxDim
	}
	if o.ProgressEvery == 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Hooks == nil {
		o.Hooks = observability.Render()
	}
}

func (o *Options) validate() error {
	if o.Engine == nil {
		return rxrerrors.New(rxrerrors.ErrCodeInvalidConfig, "no rendering engine configured")
	}
	if o.OutDir == "" {
		return rxrerrors.New(rxrerrors.ErrCodeInvalidConfig, "output directory is required")
	}
	if o.MaxDim < 1 {
		return rxrerrors.New(rxrerrors.ErrCodeInvalidConfig, "max dimension must be positive, got %d", o.MaxDim)
	}
	return ValidateFormat(o.Format)
}

// Stats summarises a run.
type Stats struct {
	Buckets  int
	Rendered int
	Elapsed  time.Duration
}

// Run renders every job of plan, one engine session per bucket.
func Run(ctx context.Context, plan *Plan, opts Options) (Stats, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}

	r := &runner{opts: opts, total: plan.Total, start: time.Now()}
	for _, b := range plan.Buckets {
		if err := r.renderBucket(ctx, b); err != nil {
			return r.stats(), err
		}
		r.buckets++
	}
	return r.stats(), nil
}

type runner struct {
	opts    Options
	total   int
	count   int
	buckets int
	start   time.Time
}

func (r *runner) stats() Stats {
	return Stats{Buckets: r.buckets, Rendered: r.count, Elapsed: time.Since(r.start)}
}

func (r *runner) renderBucket(ctx context.Context, b *Bucket) (err error) {
	cam, err := CameraFor(b.FOV, r.opts.MaxDim)
	if err != nil {
		return err
	}

	logger := r.opts.Logger
	logger.Debug("Initializing engine", "fov", b.FOV, "width", cam.Width, "height", cam.Height, "jobs", len(b.Jobs))
	r.opts.Hooks.OnBucketStart(ctx, b.FOV.H, b.FOV.V, cam.Width, cam.Height, len(b.Jobs))

	start := time.Now()
	rendered := 0
	defer func() {
		r.opts.Hooks.OnBucketComplete(ctx, b.FOV.H, b.FOV.V, rendered, time.Since(start), err)
	}()

	sess, err := r.opts.Engine.Open(ctx, cam)
	if err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeEngine, err, "initialize engine for fov %s", b.FOV)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = rxrerrors.Wrap(rxrerrors.ErrCodeEngine, cerr, "close engine for fov %s", b.FOV)
		}
	}()

	for _, job := range b.Jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.renderJob(ctx, sess, job); err != nil {
			return err
		}
		rendered++
		r.count++
		if r.count%r.opts.ProgressEvery == 0 {
			r.reportProgress()
		}
	}
	return nil
}

func (r *runner) renderJob(ctx context.Context, sess Session, job Job) error {
	start := time.Now()
	if err := sess.NewEpisode(ctx, job.Viewpoint); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeEngine, err, "scan %s pano %s", job.Scan, job.Pano)
	}
	frame, err := sess.Frame()
	if err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeEngine, err, "scan %s pano %s: read frame", job.Scan, job.Pano)
	}
	img, err := frame.Image()
	if err != nil {
		return err
	}

	dir := OutputDir(r.opts.OutDir, job)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "create %s", dir)
	}
	path := OutputPath(r.opts.OutDir, job, r.opts.Format)
	if err := imaging.Save(img, path); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "write %s", path)
	}
	r.opts.Hooks.OnFrameWritten(ctx, path, time.Since(start))
	return nil
}

// reportProgress logs elapsed time and a linear projection of the total.
func (r *runner) reportProgress() {
	mins := time.Since(r.start).Minutes()
	projected := float64(r.total) / float64(r.count) * mins
	r.opts.Logger.Infof("%d complete in %.f minutes, projected %.f minutes total", r.count, mins, projected)
}
