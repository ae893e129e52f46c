package landmark

import (
	"fmt"
	"iter"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	"github.com/matzehuels/rxrprep/pkg/rxr"
)

// Viewpoint is where the camera stands and looks.
type Viewpoint struct {
	Scan    string
	Pano    string
	Heading float64
	Pitch   float64
}

// Job is one landmark to render, with the provenance that names its output.
type Job struct {
	Viewpoint
	Split         string
	Language      string
	InstructionID int64
	Index         int
	Phrase        string
}

// FOV is a (horizontal, vertical) field of view in radians.
type FOV struct {
	H, V float64
}

// String implements fmt.Stringer.
func (f FOV) String() string {
	return fmt.Sprintf("%.4fx%.4f", f.H, f.V)
}

// Bucket holds the jobs sharing one field of view, in source order.
type Bucket struct {
	FOV  FOV
	Jobs []Job
}

// Plan is the result of bucketing every landmark of a set of annotations.
type Plan struct {
	Buckets []*Bucket
	Total   int

	index map[FOV]int
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	return &Plan{index: make(map[FOV]int)}
}

// Add appends job to the bucket for fov, creating it on first use.
func (p *Plan) Add(fov FOV, job Job) {
	if p.index == nil {
		p.index = make(map[FOV]int)
	}
	i, ok := p.index[fov]
	if !ok {
		i = len(p.Buckets)
		p.index[fov] = i
		p.Buckets = append(p.Buckets, &Bucket{FOV: fov})
	}
	p.Buckets[i].Jobs = append(p.Buckets[i].Jobs, job)
	p.Total++
}

// Bucket returns the bucket for fov, if any.
func (p *Plan) Bucket(fov FOV) (*Bucket, bool) {
	i, ok := p.index[fov]
	if !ok {
		return nil, false
	}
	return p.Buckets[i], true
}

// AddInstruction adds one job per landmark of inst.
func (p *Plan) AddInstruction(inst rxr.Instruction) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	if inst.NumLandmarks() == 0 {
		return nil
	}
	if err := rxrerrors.ValidatePathSegment("split", inst.Split); err != nil {
		return fmt.Errorf("instruction %d: %w", inst.InstructionID, err)
	}
	if err := rxrerrors.ValidatePathSegment("language", inst.Language); err != nil {
		return fmt.Errorf("instruction %d: %w", inst.InstructionID, err)
	}

	for i, ac := range inst.LandmarkAngleCoords {
		p.Add(FOV{H: ac.HFOV(), V: ac.VFOV()}, Job{
			Viewpoint: Viewpoint{
				Scan:    inst.Scan,
				Pano:    inst.LandmarkSourcePanos[i],
				Heading: ac.Heading(),
				Pitch:   ac.Pitch(),
			},
			Split:         inst.Split,
			Language:      inst.Language,
			InstructionID: inst.InstructionID,
			Index:         i,
			Phrase:        inst.TextSpans[i],
		})
	}
	return nil
}

// Collect drains seq into a plan. It stops at the first error.
func Collect(seq iter.Seq2[rxr.Instruction, error]) (*Plan, error) {
	p := NewPlan()
	for inst, err := range seq {
		if err != nil {
			return nil, err
		}
		if err := p.AddInstruction(inst); err != nil {
			return nil, err
		}
	}
	return p, nil
}
