// Package policy implements the RandAugment sampling policy: draw N
// operations uniformly, with replacement, from a fixed catalog and rescale a
// single global magnitude M into each operation's own range.
package policy

import (
	"image"
	"math/rand"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/menta2k/randaugment/pkg/transform"
)

// DefaultMaxMagnitude is the upper end of the magnitude scale.
const DefaultMaxMagnitude = 20

var (
	// ErrInvalidMagnitude is returned when M is outside [0, MaxMagnitude] or
	// MaxMagnitude is not positive.
	ErrInvalidMagnitude = errors.New("invalid magnitude")
	// ErrInvalidCount is returned when the number of operations is not positive.
	ErrInvalidCount = errors.New("invalid operation count")
	// ErrCatalogLookup is returned for an index outside the catalog.
	ErrCatalogLookup = errors.New("catalog lookup failure")
	// ErrNilRand is returned when operations are applied without a random stream.
	ErrNilRand = errors.New("nil random source")
)

// Config holds the policy parameters
type Config struct {
	Magnitude    float64 `json:"magnitude" yaml:"magnitude"`
	NumOps       int     `json:"num_ops" yaml:"num_ops"`
	MaxMagnitude float64 `json:"max_magnitude" yaml:"max_magnitude"`
	// Seed makes sampling reproducible. Zero seeds from the clock.
	Seed int64 `json:"seed" yaml:"seed"`
}

// Validate checks the parameters without building a policy.
func (c Config) Validate() error {
	if c.MaxMagnitude <= 0 {
		return errors.Wrapf(ErrInvalidMagnitude, "max magnitude %g must be positive", c.MaxMagnitude)
	}
	if c.Magnitude < 0 || c.Magnitude > c.MaxMagnitude {
		return errors.Wrapf(ErrInvalidMagnitude, "magnitude %g not in [0, %g]", c.Magnitude, c.MaxMagnitude)
	}
	if c.NumOps <= 0 {
		return errors.Wrapf(ErrInvalidCount, "%d operations requested", c.NumOps)
	}
	return nil
}

// RandAugment is an immutable sampling policy. Sample and Apply may be
// called from several goroutines; they serialize on the random stream.
type RandAugment struct {
	m    float64
	n    int
	maxM float64
	seed int64

	mu  sync.Mutex
	rng *rand.Rand
}

// SampledOp is a catalog operation bound to its rescaled magnitude.
type SampledOp struct {
	Index     int
	Name      string
	Magnitude float64
	Transform transform.Transform
}

// New creates a policy drawing n operations at magnitude m on the default
// scale of DefaultMaxMagnitude.
func New(m float64, n int) (*RandAugment, error) {
	return NewWithConfig(Config{Magnitude: m, NumOps: n, MaxMagnitude: DefaultMaxMagnitude})
}

// NewWithConfig creates a policy from cfg. A zero MaxMagnitude is not
// defaulted; callers building Config by hand must set it.
func NewWithConfig(cfg Config) (*RandAugment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return &RandAugment{
		m:    cfg.Magnitude,
		n:    cfg.NumOps,
		maxM: cfg.MaxMagnitude,
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}, nil
}

// SetRand replaces the random stream used for sampling and by the sampled
// transforms. A nil rng is ignored. Seed keeps reporting the construction
// seed afterwards.
func (p *RandAugment) SetRand(rng *rand.Rand) {
	if rng == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng = rng
}

// Magnitude returns M.
func (p *RandAugment) Magnitude() float64 { return p.m }

// NumOps returns N.
func (p *RandAugment) NumOps() int { return p.n }

// MaxMagnitude returns the top of the magnitude scale.
func (p *RandAugment) MaxMagnitude() float64 { return p.maxM }

// Seed returns the seed the random stream was created with. When the
// configured seed was zero this is the clock value actually used, so a new
// policy built with it reproduces the run.
func (p *RandAugment) Seed() int64 { return p.seed }

// Config returns the effective parameters, with Seed resolved.
func (p *RandAugment) Config() Config {
	return Config{Magnitude: p.m, NumOps: p.n, MaxMagnitude: p.maxM, Seed: p.seed}
}

// RescaleMagnitude maps M linearly from [0, MaxMagnitude] into [opMin, opMax].
func (p *RandAugment) RescaleMagnitude(opMin, opMax float64) float64 {
	return p.m/p.maxM*(opMax-opMin) + opMin
}

// Lookup returns the catalog entry at index.
func (p *RandAugment) Lookup(index int) (Descriptor, error) {
	if index < 0 || index >= len(catalog) {
		return Descriptor{}, errors.Wrapf(ErrCatalogLookup, "index %d not in [0, %d)", index, len(catalog))
	}
	return catalog[index], nil
}

// Bind builds the operation at index with its rescaled magnitude.
func (p *RandAugment) Bind(index int) (SampledOp, error) {
	d, err := p.Lookup(index)
	if err != nil {
		return SampledOp{}, err
	}
	m := p.RescaleMagnitude(d.Min, d.Max)
	return SampledOp{
		Index:     index,
		Name:      d.Name,
		Magnitude: m,
		Transform: d.New(m),
	}, nil
}

// Sample draws N operations uniformly with replacement and returns them in
// the order drawn.
func (p *RandAugment) Sample() []SampledOp {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sampleLocked()
}

func (p *RandAugment) sampleLocked() []SampledOp {
	ops := make([]SampledOp, p.n)
	for i := range ops {
		op, err := p.Bind(p.rng.Intn(len(catalog)))
		if err != nil {
			panic(errors.WithMessage(err, "sampled index outside catalog"))
		}
		ops[i] = op
	}
	return ops
}

// Apply samples a fresh set of operations and applies them to img in order.
// It returns the augmented image and the operations used.
func (p *RandAugment) Apply(img image.Image) (*image.NRGBA, []SampledOp) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ops := p.sampleLocked()
	out, err := ApplyOps(img, ops, p.rng)
	if err != nil {
		panic(err)
	}
	return out, ops
}

// ApplyOps applies ops to img sequentially, drawing transform sub-parameters
// from rng. rng must not be nil.
func ApplyOps(img image.Image, ops []SampledOp, rng *rand.Rand) (*image.NRGBA, error) {
	if rng == nil {
		return nil, errors.WithStack(ErrNilRand)
	}
	out := imaging.Clone(img)
	for _, op := range ops {
		out = op.Transform.Apply(out, rng)
	}
	return out, nil
}
