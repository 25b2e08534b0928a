package jobcfg

import (
	"github.com/jackzampolin/booklet/internal/booklet"
	"github.com/jackzampolin/booklet/internal/config"
	"github.com/jackzampolin/booklet/internal/pdfdoc"
)

// Builder resolves job options against the configured defaults. Build it
// from the current config for every job so that config reloads apply.
type Builder struct {
	defaults booklet.Options
}

// NewBuilder reads the default options from cfg.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	defaults, err := cfg.BuildOptions()
	if err != nil {
		return nil, err
	}
	return &Builder{defaults: defaults}, nil
}

// Defaults returns the configured options.
func (b *Builder) Defaults() booklet.Options {
	return b.defaults
}

// Options merges a job's overrides onto the defaults.
func (b *Builder) Options(spec *OptionsSpec) (booklet.Options, error) {
	opts := b.defaults
	if spec == nil {
		return opts, nil
	}
	opts.Preview = spec.Preview
	if spec.PageNumbers != nil {
		opts.PageNumbers = *spec.PageNumbers
	}
	if spec.Compression != "" {
		c, err := pdfdoc.ParseCompression(spec.Compression)
		if err != nil {
			return booklet.Options{}, err
		}
		opts.Compression = c
	}
	if spec.Converter != "" {
		opts.Converter = spec.Converter
	}
	if len(spec.Watermark) > 0 {
		opts.Watermark = spec.Watermark
	}
	return opts, nil
}
