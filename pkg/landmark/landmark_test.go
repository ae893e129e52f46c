package landmark

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	"github.com/matzehuels/rxrprep/pkg/rxr"
)

func instruction(id int64, lang string, coords []rxr.AngleCoord, phrases ...string) rxr.Instruction {
	panos := make([]string, len(coords))
	for i := range panos {
		panos[i] = "pano" + string(rune('a'+i))
	}
	return rxr.Instruction{
		Scan:                "ABC123",
		Split:               "val_seen",
		Language:            lang,
		InstructionID:       id,
		LandmarkSourcePanos: panos,
		LandmarkAngleCoords: coords,
		TextSpans:           phrases,
	}
}

func seqOf(insts ...rxr.Instruction) func(func(rxr.Instruction, error) bool) {
	return func(yield func(rxr.Instruction, error) bool) {
		for _, inst := range insts {
			if !yield(inst, nil) {
				return
			}
		}
	}
}

func TestResolution(t *testing.T) {
	tests := []struct {
		name string
		fov  FOV
	}{
		{"wide", FOV{H: 1.2, V: 0.7}},
		{"tall", FOV{H: 0.4, V: 1.1}},
		{"square", FOV{H: 0.9, V: 0.9}},
		{"narrow", FOV{H: 2.5, V: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Resolution(tt.fov, 300)
			if tt.fov.H > tt.fov.V {
				want := int(math.Floor(math.Tan(tt.fov.V/2) * 300 / math.Tan(tt.fov.H/2)))
				if w != 300 || h != want {
					t.Errorf("Resolution(%v) = %dx%d, want 300x%d", tt.fov, w, h, want)
				}
				return
			}
			want := int(math.Floor(math.Tan(tt.fov.H/2) * 300 / math.Tan(tt.fov.V/2)))
			if h != 300 || w != want {
				t.Errorf("Resolution(%v) = %dx%d, want %dx300", tt.fov, w, h, want)
			}
		})
	}
}

func TestCameraForRejectsBadFOV(t *testing.T) {
	for _, fov := range []FOV{{H: 0, V: 1}, {H: 1, V: -1}, {H: math.Pi, V: 1}, {H: 3.1, V: 0.0001}} {
		if _, err := CameraFor(fov, 300); !rxrerrors.Is(err, rxrerrors.ErrCodeInvalidRecord) {
			t.Errorf("CameraFor(%v) error = %v, want INVALID_RECORD", fov, err)
		}
	}
	cam, err := CameraFor(FOV{H: 1.2, V: 0.7}, 300)
	if err != nil {
		t.Fatal(err)
	}
	if cam.VFOV != 0.7 || cam.Depth {
		t.Errorf("camera = %+v, want VFOV 0.7 and depth disabled", cam)
	}
}

func TestSanitizePhrase(t *testing.T) {
	tests := map[string]string{
		"turn/left":        "turn-left",
		"a/b/c":            "a-b-c",
		"no slash":         "no slash",
		"बाएं/दाएं मुड़ें": "बाएं-दाएं मुड़ें",
	}
	for in, want := range tests {
		if got := SanitizePhrase(in); got != want {
			t.Errorf("SanitizePhrase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	job := Job{Split: "val_seen", Language: "en-US", InstructionID: 42, Index: 3, Phrase: "turn/left"}
	got := OutputPath("landmarks", job, "png")
	want := filepath.Join("landmarks", "val_seen", "en-US", "42", "3-turn-left.png")
	if got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}

func TestCollectBucketsByFOV(t *testing.T) {
	wide := rxr.AngleCoord{0.1, 0.2, 1.2, 0.7}
	tall := rxr.AngleCoord{0.3, 0.4, 0.5, 0.9}

	plan, err := Collect(seqOf(
		instruction(1, "en-US", []rxr.AngleCoord{wide, tall, wide}, "door", "stairs", "rug"),
		instruction(2, "hi-IN", []rxr.AngleCoord{tall}, "table"),
		instruction(3, "te-IN", nil),
	))
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if plan.Total != 4 {
		t.Errorf("Total = %d, want 4", plan.Total)
	}

	type key struct {
		ID    int64
		Index int
	}
	var got [][]key
	var fovs []FOV
	for _, b := range plan.Buckets {
		fovs = append(fovs, b.FOV)
		var keys []key
		for _, j := range b.Jobs {
			keys = append(keys, key{j.InstructionID, j.Index})
		}
		got = append(got, keys)
	}
	if diff := cmp.Diff([]FOV{{1.2, 0.7}, {0.5, 0.9}}, fovs); diff != "" {
		t.Errorf("bucket order mismatch (-want +got):\n%s", diff)
	}
	want := [][]key{{{1, 0}, {1, 2}}, {{1, 1}, {2, 0}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bucket jobs mismatch (-want +got):\n%s", diff)
	}

	b, ok := plan.Bucket(FOV{0.5, 0.9})
	if !ok || b.Jobs[1].Phrase != "table" || b.Jobs[1].Pano != "panoa" || b.Jobs[1].Heading != 0.3 {
		t.Errorf("Bucket lookup = %+v, %v", b, ok)
	}
}

func TestCollectErrors(t *testing.T) {
	coords := []rxr.AngleCoord{{0, 0, 1, 1}}

	misaligned := instruction(1, "en-US", coords)
	if _, err := Collect(seqOf(misaligned)); !rxrerrors.Is(err, rxrerrors.ErrCodeInvalidRecord) {
		t.Errorf("misaligned: err = %v, want INVALID_RECORD", err)
	}

	escaping := instruction(2, "../en", coords, "x")
	if _, err := Collect(seqOf(escaping)); !rxrerrors.Is(err, rxrerrors.ErrCodeInvalidRecord) {
		t.Errorf("escaping language: err = %v, want INVALID_RECORD", err)
	}

	readErr := errors.New("unexpected EOF")
	seq := func(yield func(rxr.Instruction, error) bool) { yield(rxr.Instruction{}, readErr) }
	if _, err := Collect(seq); !errors.Is(err, readErr) {
		t.Errorf("read error: err = %v, want %v", err, readErr)
	}
}

func TestFrameImage(t *testing.T) {
	bgr := Frame{Width: 2, Height: 1, Order: BGR, Pix: []uint8{10, 20, 30, 40, 50, 60}}
	img, err := bgr.Image()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 30, G: 20, B: 10, A: 255}) {
		t.Errorf("BGR pixel 0 = %v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{R: 60, G: 50, B: 40, A: 255}) {
		t.Errorf("BGR pixel 1 = %v", got)
	}

	rgb := bgr
	rgb.Order = RGB
	img, err = rgb.Image()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("RGB pixel 0 = %v", got)
	}

	short := Frame{Width: 2, Height: 2, Pix: make([]uint8, 5)}
	if _, err := short.Image(); !rxrerrors.Is(err, rxrerrors.ErrCodeEngine) {
		t.Errorf("short frame: err = %v, want ENGINE_ERROR", err)
	}
}

// fakeEngine renders a solid BGR frame whose blue channel encodes the
// episode count of its session.
type fakeEngine struct {
	opened   []Camera
	closed   int
	failPano string
}

func (e *fakeEngine) Open(_ context.Context, cam Camera) (Session, error) {
	e.opened = append(e.opened, cam)
	return &fakeSession{engine: e, cam: cam}, nil
}

type fakeSession struct {
	engine   *fakeEngine
	cam      Camera
	episodes int
}

func (s *fakeSession) NewEpisode(_ context.Context, vp Viewpoint) error {
	if vp.Pano == s.engine.failPano {
		return errors.New("pano not found")
	}
	s.episodes++
	return nil
}

func (s *fakeSession) Frame() (Frame, error) {
	pix := make([]uint8, s.cam.Width*s.cam.Height*3)
	for i := 0; i < len(pix); i += 3 {
		pix[i], pix[i+1], pix[i+2] = uint8(s.episodes), 128, 255
	}
	return Frame{Width: s.cam.Width, Height: s.cam.Height, Order: BGR, Pix: pix}, nil
}

func (s *fakeSession) Close() error {
	s.engine.closed++
	return nil
}

func TestRun(t *testing.T) {
	wide := rxr.AngleCoord{0.1, 0.2, 1.2, 0.7}
	tall := rxr.AngleCoord{0.3, 0.4, 0.5, 0.9}
	plan, err := Collect(seqOf(
		instruction(42, "en-US", []rxr.AngleCoord{wide, tall, wide}, "door", "turn/left", "rug"),
		instruction(43, "hi-IN", []rxr.AngleCoord{tall}, "मेज़"),
	))
	if err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	engine := &fakeEngine{}
	var logs bytes.Buffer
	stats, err := Run(context.Background(), plan, Options{
		OutDir:        out,
		Engine:        engine,
		ProgressEvery: 2,
		Logger:        log.New(&logs),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.Rendered != 4 || stats.Buckets != 2 {
		t.Errorf("stats = %+v, want 4 rendered in 2 buckets", stats)
	}
	if len(engine.opened) != 2 || engine.closed != 2 {
		t.Errorf("opened %d sessions, closed %d; want 2 and 2", len(engine.opened), engine.closed)
	}
	if engine.opened[0].Width != 300 {
		t.Errorf("first session width = %d, want 300", engine.opened[0].Width)
	}

	want := []string{
		filepath.Join(out, "val_seen", "en-US", "42", "0-door.png"),
		filepath.Join(out, "val_seen", "en-US", "42", "1-turn-left.png"),
		filepath.Join(out, "val_seen", "en-US", "42", "2-rug.png"),
		filepath.Join(out, "val_seen", "hi-IN", "43", "0-मेज़.png"),
	}
	for _, p := range want {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %s: %v", p, err)
		}
	}
	entries, _ := os.ReadDir(filepath.Join(out, "val_seen", "en-US", "42"))
	if len(entries) != 3 {
		t.Errorf("instruction 42 has %d files, want 3", len(entries))
	}

	// The rug is the second job of the wide bucket: blue channel 2 after BGR reversal.
	img, err := imaging.Open(want[2])
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 128 || b>>8 != 2 {
		t.Errorf("pixel = (%d, %d, %d), want (255, 128, 2)", r>>8, g>>8, b>>8)
	}

	if n := strings.Count(logs.String(), "complete in"); n != 2 {
		t.Errorf("progress lines = %d, want 2\n%s", n, logs.String())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	plan, _ := Collect(seqOf(instruction(7, "en-US", []rxr.AngleCoord{{0, 0, 1, 1}}, "x")))
	out := t.TempDir()
	for i := 0; i < 2; i++ {
		if _, err := Run(context.Background(), plan, Options{OutDir: out, Engine: &fakeEngine{}}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	entries, _ := os.ReadDir(filepath.Join(out, "val_seen", "en-US", "7"))
	if len(entries) != 1 {
		t.Errorf("files = %d, want 1", len(entries))
	}
}

func TestRunAbortsOnEngineFailure(t *testing.T) {
	wide := rxr.AngleCoord{0.1, 0.2, 1.2, 0.7}
	tall := rxr.AngleCoord{0.3, 0.4, 0.5, 0.9}
	plan, _ := Collect(seqOf(instruction(1, "en-US", []rxr.AngleCoord{wide, wide, tall}, "a", "b", "c")))

	engine := &fakeEngine{failPano: "panob"}
	out := t.TempDir()
	stats, err := Run(context.Background(), plan, Options{OutDir: out, Engine: engine})
	if !rxrerrors.Is(err, rxrerrors.ErrCodeEngine) {
		t.Fatalf("Run() error = %v, want ENGINE_ERROR", err)
	}
	if stats.Rendered != 1 {
		t.Errorf("rendered = %d, want 1", stats.Rendered)
	}
	if len(engine.opened) != 1 || engine.closed != 1 {
		t.Errorf("sessions opened=%d closed=%d, want 1 and 1", len(engine.opened), engine.closed)
	}
	if _, err := os.Stat(filepath.Join(out, "val_seen", "en-US", "1", "0-a.png")); err != nil {
		t.Errorf("partial output should remain: %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	plan, _ := Collect(seqOf(instruction(1, "en-US", []rxr.AngleCoord{{0, 0, 1, 1}}, "a")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &fakeEngine{}
	_, err := Run(ctx, plan, Options{OutDir: t.TempDir(), Engine: engine})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if engine.closed != len(engine.opened) {
		t.Errorf("sessions opened=%d closed=%d", len(engine.opened), engine.closed)
	}
}

func TestRunValidatesOptions(t *testing.T) {
	plan := NewPlan()
	tests := []struct {
		name string
		opts Options
		code rxrerrors.Code
	}{
		{"no engine", Options{OutDir: "x"}, rxrerrors.ErrCodeInvalidConfig},
		{"no outdir", Options{Engine: &fakeEngine{}}, rxrerrors.ErrCodeInvalidConfig},
		{"bad format", Options{OutDir: "x", Engine: &fakeEngine{}, Format: "webp"}, rxrerrors.ErrCodeInvalidFormat},
		{"negative size", Options{OutDir: "x", Engine: &fakeEngine{}, MaxDim: -1}, rxrerrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Run(context.Background(), plan, tt.opts); !rxrerrors.Is(err, tt.code) {
				t.Errorf("Run() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRunJPEG(t *testing.T) {
	plan, _ := Collect(seqOf(instruction(9, "en-US", []rxr.AngleCoord{{0, 0, 1, 1}}, "lamp")))
	out := t.TempDir()
	if _, err := Run(context.Background(), plan, Options{OutDir: out, Engine: &fakeEngine{}, Format: "jpg"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "val_seen", "en-US", "9", "0-lamp.jpg")); err != nil {
		t.Errorf("missing jpg output: %v", err)
	}
}

type recordingHooks struct {
	starts, frames int
	completed      []int
	lastErr        error
}

func (h *recordingHooks) OnBucketStart(context.Context, float64, float64, int, int, int) {
	h.starts++
}

func (h *recordingHooks) OnBucketComplete(_ context.Context, _, _ float64, rendered int, _ time.Duration, err error) {
	h.completed = append(h.completed, rendered)
	h.lastErr = err
}

func (h *recordingHooks) OnFrameWritten(context.Context, string, time.Duration) {
	h.frames++
}

func TestRunHooks(t *testing.T) {
	wide := rxr.AngleCoord{0.1, 0.2, 1.2, 0.7}
	tall := rxr.AngleCoord{0.3, 0.4, 0.5, 0.9}
	plan, _ := Collect(seqOf(instruction(1, "en-US", []rxr.AngleCoord{wide, tall, wide}, "a", "b", "c")))

	hooks := &recordingHooks{}
	_, err := Run(context.Background(), plan, Options{OutDir: t.TempDir(), Engine: &fakeEngine{}, Hooks: hooks})
	if err != nil {
		t.Fatal(err)
	}
	if hooks.starts != 2 || hooks.frames != 3 {
		t.Errorf("starts=%d frames=%d, want 2 and 3", hooks.starts, hooks.frames)
	}
	if diff := cmp.Diff([]int{2, 1}, hooks.completed); diff != "" {
		t.Errorf("rendered per bucket mismatch (-want +got):\n%s", diff)
	}

	hooks = &recordingHooks{}
	_, err = Run(context.Background(), plan, Options{OutDir: t.TempDir(), Engine: &fakeEngine{failPano: "panob"}, Hooks: hooks})
	if err == nil || hooks.lastErr == nil {
		t.Errorf("bucket error not reported to hooks: run err=%v hook err=%v", err, hooks.lastErr)
	}
}
