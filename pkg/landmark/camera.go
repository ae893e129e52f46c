package landmark

import (
	"math"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
)

// DefaultMaxDim is the larger image dimension of a rendered landmark.
const DefaultMaxDim = 300

// Camera configures an engine session.
type Camera struct {
	Width  int
	Height int
	VFOV   float64 // radians
	Depth  bool
}

// Resolution returns the image size for fov whose larger side is maxDim.
// The smaller side is scaled by the ratio of the half-angle tangents, so the
// image plane keeps the aspect ratio the two angles imply. Sizes truncate
// toward zero.
func Resolution(fov FOV, maxDim int) (width, height int) {
	if fov.H > fov.V {
		width = maxDim
		height = int(math.Tan(fov.V/2) * float64(width) / math.Tan(fov.H/2))
		return width, height
	}
	height = maxDim
	width = int(math.Tan(fov.H/2) * float64(height) / math.Tan(fov.V/2))
	return width, height
}

// CameraFor returns the session camera for a bucket.
func CameraFor(fov FOV, maxDim int) (Camera, error) {
	if !validAngle(fov.H) || !validAngle(fov.V) {
		return Camera{}, rxrerrors.New(rxrerrors.ErrCodeInvalidRecord, "field of view %s out of range (0, pi)", fov)
	}
	w, h := Resolution(fov, maxDim)
	if w < 1 || h < 1 {
		return Camera{}, rxrerrors.New(rxrerrors.ErrCodeInvalidRecord, "field of view %s gives empty %dx%d image", fov, w, h)
	}
	return Camera{Width: w, Height: h, VFOV: fov.V}, nil
}

func validAngle(a float64) bool {
	return a > 0 && a < math.Pi
}
