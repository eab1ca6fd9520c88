package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/randaugment/pkg/imageio"
	"github.com/menta2k/randaugment/pkg/policy"
)

// Config holds the application configuration
type Config struct {
	Policy policy.Config `json:"policy" yaml:"policy"`
	Input  InputConfig   `json:"input" yaml:"input"`
	Output OutputConfig  `json:"output" yaml:"output"`
}

// InputConfig holds configuration for image loading
type InputConfig struct {
	SupportedFormats []string `json:"supported_formats" yaml:"supported_formats"`
	MinImageSize     int      `json:"min_image_size" yaml:"min_image_size"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format" yaml:"default_format"`
	Quality       int    `json:"quality" yaml:"quality"`
	Lossless      bool   `json:"lossless" yaml:"lossless"`
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	Prefix        string `json:"prefix" yaml:"prefix"`
	Suffix        string `json:"suffix" yaml:"suffix"`
	// Copies is the number of augmented variants written per input image.
	Copies int `json:"copies" yaml:"copies"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Policy: policy.Config{
			Magnitude:    9,
			NumOps:       2,
			MaxMagnitude: policy.DefaultMaxMagnitude,
		},
		Input: InputConfig{
			SupportedFormats: append([]string(nil), imageio.DefaultFormats...),
			MinImageSize:     8,
		},
		Output: OutputConfig{
			DefaultFormat: "jpg",
			Quality:       90,
			OutputDir:     "./augmented",
			Suffix:        "_aug",
			Copies:        1,
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields absent
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file, chosen by extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return errors.WithMessage(err, "policy")
	}

	if len(c.Input.SupportedFormats) == 0 {
		return errors.New("input.supported_formats cannot be empty")
	}

	if c.Input.MinImageSize < 1 {
		return errors.New("input.min_image_size must be positive")
	}

	switch imageio.NormalizeFormat(c.Output.DefaultFormat) {
	case "jpg", "png", "webp":
	default:
		return errors.Errorf("output.default_format %q must be jpg, png or webp", c.Output.DefaultFormat)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return errors.New("output.quality must be between 1 and 100")
	}

	if c.Output.Copies < 1 {
		return errors.New("output.copies must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "randaugment", "config.json")
}
