package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// runOptions holds every `run` setting. The same struct is the shape of the
// optional --config YAML file; all fields must carry yaml tags to satisfy
// KnownFields(true) strict parsing.
type runOptions struct {
	Population int    `yaml:"population"`
	Ticks      int    `yaml:"ticks"`
	Runs       int    `yaml:"runs"`
	Workers    int    `yaml:"workers"`
	Mode       string `yaml:"mode"`
	Agent      string `yaml:"agent"`
	Market     string `yaml:"market"`
	Seed       int64  `yaml:"seed"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	Summary    bool   `yaml:"summary"`
}

// loadBatchFile decodes path over base, so fields absent from the file keep
// their value from base. Typos in field names are errors.
func loadBatchFile(path string, base runOptions) (runOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading batch config: %w", err)
	}
	out := base
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&out); err != nil {
		return base, fmt.Errorf("parsing batch config %s: %w", path, err)
	}
	return out, nil
}

// mergeBatchFile loads path over the flag values in opts; flags the user set
// explicitly win over the file.
func mergeBatchFile(path string, opts runOptions, changed func(name string) bool) (runOptions, error) {
	file, err := loadBatchFile(path, opts)
	if err != nil {
		return opts, err
	}
	overrides := []struct {
		flag  string
		apply func()
	}{
		{"population", func() { file.Population = opts.Population }},
		{"ticks", func() { file.Ticks = opts.Ticks }},
		{"runs", func() { file.Runs = opts.Runs }},
		{"workers", func() { file.Workers = opts.Workers }},
		{"mode", func() { file.Mode = opts.Mode }},
		{"agent", func() { file.Agent = opts.Agent }},
		{"market", func() { file.Market = opts.Market }},
		{"seed", func() { file.Seed = opts.Seed }},
		{"format", func() { file.Format = opts.Format }},
		{"output", func() { file.Output = opts.Output }},
		{"summary", func() { file.Summary = opts.Summary }},
	}
	for _, o := range overrides {
		if changed(o.flag) {
			o.apply()
		}
	}
	return file, nil
}
