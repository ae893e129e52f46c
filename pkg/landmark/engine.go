package landmark

import (
	"context"
	"image"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
)

// Engine opens rendering sessions.
type Engine interface {
	// Open configures and initialises a session for cam.
	Open(ctx context.Context, cam Camera) (Session, error)
}

// Session is an initialised engine bound to one camera configuration.
// It holds the current episode; callers must Close it when done.
type Session interface {
	// NewEpisode moves the camera to vp.
	NewEpisode(ctx context.Context, vp Viewpoint) error
	// Frame returns the color frame of the current episode.
	Frame() (Frame, error)
	Close() error
}

// ChannelOrder is the byte order of a pixel in a Frame.
type ChannelOrder int

const (
	// BGR is the order used by the Matterport3D simulator.
	BGR ChannelOrder = iota
	RGB
)

// Frame is an 8-bit, 3-channel, row-major image.
type Frame struct {
	Width  int
	Height int
	Order  ChannelOrder
	Pix    []uint8
}

// Image converts the frame to an opaque NRGBA image.
func (f Frame) Image() (*image.NRGBA, error) {
	if f.Width < 1 || f.Height < 1 || len(f.Pix) != f.Width*f.Height*3 {
		return nil, rxrerrors.New(rxrerrors.ErrCodeEngine,
			"frame has %d bytes, want %dx%dx3", len(f.Pix), f.Width, f.Height)
	}
	r, b := 0, 2
	if f.Order == BGR {
		r, b = 2, 0
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i < len(f.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pix[i+r]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i+b]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}
