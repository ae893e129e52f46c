// Package skybox renders landmark views from Matterport3D skybox images.
//
// Each panorama in the Matterport3D release ships as six cube faces under
// {dir}/{scan}/matterport_skybox_images/{pano}_skybox{n}_sami.jpg. Face 0
// looks up, faces 1 to 4 look horizontally at headings 0, 90, 180 and 270
// degrees (clockwise from the scan's +y axis), and face 5 looks down.
//
// The engine casts one ray per output pixel through a pinhole camera with
// the session's vertical field of view, finds the face the ray exits through
// and samples it with nearest-neighbour lookup. Frames are BGR, like those
// of the Matterport3D simulator.
package skybox

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	"github.com/matzehuels/rxrprep/pkg/landmark"
)

// NumFaces is the number of cube faces per panorama.
const NumFaces = 6

// Face indices.
const (
	FaceUp    = 0
	FaceDown  = 5
	faceFirst = 1 // heading 0, then clockwise
)

// FacePath returns the image path of one skybox face.
func FacePath(dir, scan, pano string, face int) string {
	return filepath.Join(dir, scan, "matterport_skybox_images", fmt.Sprintf("%s_skybox%d_sami.jpg", pano, face))
}

// Engine opens skybox sessions rooted at Dir.
type Engine struct {
	Dir    string
	Logger *log.Logger
}

// New returns an engine that reads skyboxes below dir.
func New(dir string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{Dir: dir, Logger: logger}
}

// Open implements landmark.Engine.
func (e *Engine) Open(ctx context.Context, cam landmark.Camera) (landmark.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cam.Width < 1 || cam.Height < 1 {
		return nil, rxrerrors.New(rxrerrors.ErrCodeInvalidConfig, "camera size %dx%d", cam.Width, cam.Height)
	}
	if cam.VFOV <= 0 || cam.VFOV >= math.Pi {
		return nil, rxrerrors.New(rxrerrors.ErrCodeInvalidConfig, "vertical field of view %.4f out of range", cam.VFOV)
	}
	if cam.Depth {
		return nil, rxrerrors.New(rxrerrors.ErrCodeInvalidConfig, "skybox engine has no depth output")
	}
	logger := e.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &session{dir: e.Dir, cam: cam, logger: logger}, nil
}

type session struct {
	dir    string
	cam    landmark.Camera
	logger *log.Logger

	scan, pano string
	faces      [NumFaces]*image.NRGBA
	loads      int

	vp     landmark.Viewpoint
	ready  bool
	closed bool
}

func (s *session) NewEpisode(ctx context.Context, vp landmark.Viewpoint) error {
	if s.closed {
		return rxrerrors.New(rxrerrors.ErrCodeEngine, "session closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if vp.Scan != s.scan || vp.Pano != s.pano || s.faces[0] == nil {
		if err := s.load(vp.Scan, vp.Pano); err != nil {
			s.ready = false
			return err
		}
	}
	s.vp = vp
	s.ready = true
	return nil
}

func (s *session) load(scan, pano string) error {
	if err := rxrerrors.ValidatePathSegment("scan", scan); err != nil {
		return err
	}
	if err := rxrerrors.ValidatePathSegment("pano", pano); err != nil {
		return err
	}
	s.logger.Debug("Loading skybox", "scan", scan, "pano", pano)

	var faces [NumFaces]*image.NRGBA
	for i := range faces {
		path := FacePath(s.dir, scan, pano, i)
		img, err := imaging.Open(path)
		if err != nil {
			return rxrerrors.WrapFile(rxrerrors.ErrCodeEngine, err, path)
		}
		faces[i] = imaging.Clone(img)
		if b := faces[i].Bounds(); b.Dx() < 1 || b.Dy() < 1 {
			return rxrerrors.New(rxrerrors.ErrCodeEngine, "%s: empty image", path)
		}
	}
	s.faces = faces
	s.scan, s.pano = scan, pano
	s.loads++
	return nil
}

func (s *session) Frame() (landmark.Frame, error) {
	if s.closed {
		return landmark.Frame{}, rxrerrors.New(rxrerrors.ErrCodeEngine, "session closed")
	}
	if !s.ready {
		return landmark.Frame{}, rxrerrors.New(rxrerrors.ErrCodeEngine, "no episode started")
	}

	w, h := s.cam.Width, s.cam.Height
	pix := make([]uint8, w*h*3)
	basis := newBasis(s.vp.Heading, s.vp.Pitch)
	focal := float64(h) / 2 / math.Tan(s.cam.VFOV/2)

	i := 0
	for row := 0; row < h; row++ {
		y := float64(h)/2 - (float64(row) + 0.5)
		for col := 0; col < w; col++ {
			x := float64(col) + 0.5 - float64(w)/2
			face, u, v := project(basis.ray(x, y, focal))
			r, g, b := sample(s.faces[face], u, v)
			pix[i], pix[i+1], pix[i+2] = b, g, r
			i += 3
		}
	}
	return landmark.Frame{Width: w, Height: h, Order: landmark.BGR, Pix: pix}, nil
}

func (s *session) Close() error {
	s.closed = true
	s.faces = [NumFaces]*image.NRGBA{}
	return nil
}

type vec3 [3]float64

// basis is the camera frame in scan coordinates: x east, y north, z up.
type basis struct {
	forward, right, up vec3
}

func newBasis(heading, pitch float64) basis {
	sh, ch := math.Sincos(heading)
	sp, cp := math.Sincos(pitch)
	return basis{
		forward: vec3{sh * cp, ch * cp, sp},
		right:   vec3{ch, -sh, 0},
		up:      vec3{-sh * sp, -ch * sp, cp},
	}
}

func (b basis) ray(x, y, focal float64) vec3 {
	var d vec3
	for k := range d {
		d[k] = b.forward[k]*focal + b.right[k]*x + b.up[k]*y
	}
	return d
}

// project maps a direction to a face and face coordinates in [-1, 1], with
// u growing to the right and v growing downwards in the face image. The top
// and bottom faces are oriented so their edge toward heading 0 meets face 1.
func project(d vec3) (face int, u, v float64) {
	x, y, z := d[0], d[1], d[2]
	ax, ay, az := math.Abs(x), math.Abs(y), math.Abs(z)

	switch {
	case az >= ax && az >= ay:
		if z > 0 {
			return FaceUp, x / az, y / az
		}
		return FaceDown, x / az, -y / az
	case ay >= ax:
		if y > 0 {
			return faceFirst, x / ay, -z / ay
		}
		return faceFirst + 2, -x / ay, -z / ay
	default:
		if x > 0 {
			return faceFirst + 1, -y / ax, -z / ax
		}
		return faceFirst + 3, y / ax, -z / ax
	}
}

func sample(img *image.NRGBA, u, v float64) (r, g, b uint8) {
	bounds := img.Bounds()
	px := clamp(int((u+1)/2*float64(bounds.Dx())), bounds.Dx()-1)
	py := clamp(int((v+1)/2*float64(bounds.Dy())), bounds.Dy()-1)
	off := img.PixOffset(bounds.Min.X+px, bounds.Min.Y+py)
	return img.Pix[off], img.Pix[off+1], img.Pix[off+2]
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}
