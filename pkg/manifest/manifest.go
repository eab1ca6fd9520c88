// Package manifest records which operations produced each augmented image so
// a run can be audited or reproduced.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/menta2k/randaugment/pkg/policy"
	"github.com/menta2k/randaugment/pkg/types"
)

// FileName is the name the manifest is written under in an output directory.
const FileName = "manifest.json"

// Recorder accumulates variant records for a single run. It is safe for
// concurrent use.
type Recorder struct {
	mu       sync.Mutex
	manifest types.Manifest
}

// NewRecorder starts a run for the given policy parameters. Pass the
// policy's resolved Config so a clock-seeded run records the seed it used.
func NewRecorder(cfg policy.Config) *Recorder {
	return &Recorder{
		manifest: types.Manifest{
			RunID:     uuid.NewString(),
			CreatedAt: time.Now().UTC(),
			Policy: types.PolicyRecord{
				Magnitude:    cfg.Magnitude,
				NumOps:       cfg.NumOps,
				MaxMagnitude: cfg.MaxMagnitude,
				Seed:         cfg.Seed,
			},
		},
	}
}

// RunID returns the run identifier.
func (r *Recorder) RunID() string {
	return r.manifest.RunID
}

// Ops converts sampled operations to their serializable form.
func Ops(ops []policy.SampledOp) []types.OpRecord {
	records := make([]types.OpRecord, len(ops))
	for i, op := range ops {
		records[i] = types.OpRecord{Name: op.Name, Magnitude: op.Magnitude}
	}
	return records
}

// Add appends a variant to the run.
func (r *Recorder) Add(v types.VariantRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest.Variants = append(r.manifest.Variants, v)
}

// Manifest returns a snapshot of the run so far.
func (r *Recorder) Manifest() types.Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.manifest
	m.Variants = append([]types.VariantRecord(nil), r.manifest.Variants...)
	return m
}

// WriteFile writes the manifest as indented JSON to dir/FileName and returns
// the path written.
func (r *Recorder) WriteFile(dir string) (string, error) {
	data, err := json.MarshalIndent(r.Manifest(), "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal manifest")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create manifest directory")
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write manifest")
	}
	return path, nil
}

// ReadFile loads a manifest written by WriteFile.
func ReadFile(path string) (types.Manifest, error) {
	var m types.Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, errors.Wrap(err, "failed to read manifest")
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, errors.Wrapf(err, "failed to parse manifest %s", path)
	}
	return m, nil
}
