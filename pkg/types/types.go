package types

import "time"

// OpRecord is one applied operation and the magnitude it was bound to
type OpRecord struct {
	Name      string  `json:"name"`
	Magnitude float64 `json:"magnitude"`
}

// VariantRecord describes one augmented output image
type VariantRecord struct {
	Source string     `json:"source"`
	Output string     `json:"output"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Ops    []OpRecord `json:"ops"`
}

// PolicyRecord captures the policy parameters of a run
type PolicyRecord struct {
	Magnitude    float64 `json:"magnitude"`
	NumOps       int     `json:"num_ops"`
	MaxMagnitude float64 `json:"max_magnitude"`
	Seed         int64   `json:"seed,omitempty"`
}

// Manifest is the record of an augmentation run
type Manifest struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Policy    PolicyRecord    `json:"policy"`
	Variants  []VariantRecord `json:"variants"`
}

// OutputOptions controls how augmented variants are written
type OutputOptions struct {
	Format   string
	Quality  int
	Lossless bool
	Prefix   string
	Suffix   string
}
