package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/menta2k/randaugment"
	"github.com/menta2k/randaugment/internal/config"
	"github.com/menta2k/randaugment/internal/utils"
	"github.com/menta2k/randaugment/pkg/imageio"
	"github.com/menta2k/randaugment/pkg/policy"
	"github.com/menta2k/randaugment/pkg/types"
)

func main() {
	var in, outDir, configPath, ext string
	var m, maxM float64
	var n, copies, quality int
	var seed int64
	var lossless, list, progress bool

	flag.StringVar(&in, "in", "", "input image path, directory or URL")
	flag.StringVar(&outDir, "out", "", "output directory (overrides config)")
	flag.StringVar(&configPath, "config", "", "JSON or YAML config file (default: "+config.GetConfigPath()+" if present)")
	flag.Float64Var(&m, "m", -1, "global magnitude M in [0, maxm]")
	flag.IntVar(&n, "n", 0, "number of operations sampled per variant")
	flag.Float64Var(&maxM, "maxm", 0, "maximum magnitude the scale is normalized against")
	flag.Int64Var(&seed, "seed", 0, "random seed; 0 seeds from the clock")
	flag.IntVar(&copies, "copies", 0, "augmented variants written per input image")
	flag.StringVar(&ext, "ext", "", "output format: jpg|png|webp")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode")
	flag.BoolVar(&list, "list", false, "print the operation catalog with rescaled magnitudes and exit")
	flag.BoolVar(&progress, "progress", true, "show a progress bar when processing several images")
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg, err := loadConfig(configPath)
	if err != nil {
		klog.Fatalf("Failed to load config: %+v", err)
	}

	// Flags override the config file only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "m":
			cfg.Policy.Magnitude = m
		case "n":
			cfg.Policy.NumOps = n
		case "maxm":
			cfg.Policy.MaxMagnitude = maxM
		case "seed":
			cfg.Policy.Seed = seed
		case "out":
			cfg.Output.OutputDir = outDir
		case "copies":
			cfg.Output.Copies = copies
		case "ext":
			cfg.Output.DefaultFormat = ext
		case "quality":
			cfg.Output.Quality = quality
		case "lossless":
			cfg.Output.Lossless = lossless
		}
	})
	if err := cfg.Validate(); err != nil {
		klog.Fatalf("Invalid configuration: %v", err)
	}

	if list {
		if err := printCatalog(cfg.Policy); err != nil {
			klog.Fatalf("%v", err)
		}
		return
	}
	if in == "" {
		klog.Fatalf("usage: %s -in input.jpg|dir|URL [-m 9] [-n 2] [-maxm 20] [-copies 1] [-out dir] [-ext jpg|png|webp] [-seed 0] [-config file]", filepath.Base(os.Args[0]))
	}

	inputs, err := collectInputs(in)
	if err != nil {
		klog.Fatalf("Failed to collect inputs: %+v", err)
	}
	if len(inputs) == 0 {
		klog.Fatalf("No image files found in %s", in)
	}

	aug, err := randaugment.NewWithConfig(cfg.Policy,
		imageio.Config{
			DefaultQuality:   cfg.Output.Quality,
			SupportedFormats: cfg.Input.SupportedFormats,
			MinImageSize:     cfg.Input.MinImageSize,
		},
		types.OutputOptions{
			Format:   cfg.Output.DefaultFormat,
			Quality:  cfg.Output.Quality,
			Lossless: cfg.Output.Lossless,
			Prefix:   cfg.Output.Prefix,
			Suffix:   cfg.Output.Suffix,
		})
	if err != nil {
		klog.Fatalf("Failed to create augmenter: %+v", err)
	}
	klog.Infof("run=%s M=%g N=%d maxM=%g inputs=%d copies=%d",
		aug.Manifest().RunID, cfg.Policy.Magnitude, cfg.Policy.NumOps, cfg.Policy.MaxMagnitude, len(inputs), cfg.Output.Copies)

	var bar *progressbar.ProgressBar
	if progress && len(inputs) > 1 {
		bar = progressbar.NewOptions(len(inputs),
			progressbar.OptionSetDescription("augmenting"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionSetWriter(os.Stderr),
		)
	}

	var written int
	var totalBytes int64
	var failed int
	for _, input := range inputs {
		records, err := aug.ProcessImageFile(input, cfg.Output.OutputDir, cfg.Output.Copies)
		if err != nil {
			failed++
			klog.Warningf("skipping %s: %v", input, err)
		}
		for _, rec := range records {
			written++
			if info, err := os.Stat(rec.Output); err == nil {
				totalBytes += info.Size()
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	manifestPath, err := aug.WriteManifest(cfg.Output.OutputDir)
	if err != nil {
		klog.Fatalf("Failed to write manifest: %+v", err)
	}
	klog.Infof("wrote %s variants (%s) to %s, %d inputs failed; manifest %s",
		humanize.Comma(int64(written)), utils.FormatFileSize(totalBytes), cfg.Output.OutputDir, failed, manifestPath)
	if failed == len(inputs) {
		klog.Flush()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	if def := config.GetConfigPath(); utils.FileExists(def) {
		klog.V(1).Infof("using config %s", def)
		return config.LoadFromFile(def)
	}
	return config.Default(), nil
}

// collectInputs expands in into the list of images to process.
func collectInputs(in string) ([]string, error) {
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		return []string{in}, nil
	}
	if utils.DirExists(in) {
		return utils.ListImageFiles(in)
	}
	if !utils.FileExists(in) {
		return nil, errors.Errorf("input %s does not exist", in)
	}
	return []string{in}, nil
}

func printCatalog(cfg policy.Config) error {
	p, err := policy.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "#\tOPERATION\tMIN\tMAX\tMAGNITUDE (M=%g/%g)\n", p.Magnitude(), p.MaxMagnitude())
	for i, d := range policy.Catalog() {
		fmt.Fprintf(w, "%d\t%s\t%g\t%g\t%.4g\n", i, d.Name, d.Min, d.Max, p.RescaleMagnitude(d.Min, d.Max))
	}
	return w.Flush()
}
