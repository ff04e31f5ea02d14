// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

// Package config loads transform pipelines from TOML files.
//
// A file sets default options for every step at the top level and lists the
// steps as an array of tables:
//
//	layout = "last"
//	order = 1
//	anti_alias = true
//
//	[[step]]
//	op = "normalize"
//	mean = [0.1, 0.2, 0.3]
//	std = 0.5
//
//	[[step]]
//	op = "zoom"
//	box = [2, 2, 32, 32]   # top, left, height, width
//	border = "reflect"
//
// Arrays must not mix integer and float literals, so write [2.0, 0.5] rather
// than [2, 0.5].
//
// A step may override any of the default options. Steps may also be given
// in the compact pipeline syntax with the top-level "ops" key. Those run
// before the [[step]] tables and carry their own options.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"

	"willnorris.com/go/hypia"
)

// Config is the decoded form of a pipeline file.
type Config struct {
	Layout    string  `toml:"layout"`
	Order     *int    `toml:"order"`
	AntiAlias bool    `toml:"anti_alias"`
	Border    string  `toml:"border"`
	Cval      float64 `toml:"cval"`
	Clip      bool    `toml:"clip"`

	Ops   string                   `toml:"ops"`
	Steps []map[string]interface{} `toml:"step"`
}

// Step is a single [[step]] table. Which fields apply depends on Name, the
// value of its "op" key.
type Step struct {
	Name string `mapstructure:"op"`

	Mean        []float64 `mapstructure:"mean"`
	Std         []float64 `mapstructure:"std"`
	Size        []int     `mapstructure:"size"`  // n, [h, w] or [h, w, c]
	Scale       []float64 `mapstructure:"scale"` // rescale: f or [fy, fx]; affine: [sx, sy]
	Box         []int     `mapstructure:"box"`
	Angle       float64   `mapstructure:"angle"`
	Reshape     bool      `mapstructure:"reshape"`
	Value       float64   `mapstructure:"value"`
	Rotation    float64   `mapstructure:"rotation"`
	Shear       float64   `mapstructure:"shear"`
	Translation []float64 `mapstructure:"translation"`

	Layout    *string  `mapstructure:"layout"`
	Order     *int     `mapstructure:"order"`
	AntiAlias *bool    `mapstructure:"anti_alias"`
	Border    *string  `mapstructure:"border"`
	Cval      *float64 `mapstructure:"cval"`
	Clip      *bool    `mapstructure:"clip"`
}

// Load reads and decodes the TOML file at path.
func Load(path string) (*Config, error) {
	c := new(Config)
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return c, nil
}

// Decode decodes TOML data.
func Decode(data string) (*Config, error) {
	c := new(Config)
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return c, nil
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return fmt.Errorf("config: unknown keys %s", strings.Join(names, ", "))
	}
	return nil
}

// Options returns the default options shared by all steps.
func (c *Config) Options() (hypia.Options, error) {
	var opt hypia.Options
	var err error
	if opt.Layout, err = hypia.ParseLayout(c.Layout); err != nil {
		return opt, fmt.Errorf("config: %w", err)
	}
	if c.Order != nil {
		if opt.Order, err = hypia.OrderOf(*c.Order); err != nil {
			return opt, fmt.Errorf("config: %w", err)
		}
	}
	if c.Border != "" {
		if opt.Border, err = hypia.ParseBorder(c.Border); err != nil {
			return opt, fmt.Errorf("config: %w", err)
		}
	}
	opt.AntiAlias = c.AntiAlias
	opt.Cval = c.Cval
	opt.Clip = c.Clip
	return opt, nil
}

// Pipeline builds the pipeline described by c.
func (c *Config) Pipeline() (hypia.Pipeline, error) {
	base, err := c.Options()
	if err != nil {
		return nil, err
	}

	p, err := hypia.ParsePipeline(c.Ops)
	if err != nil {
		return nil, fmt.Errorf("config: ops: %w", err)
	}
	for i, raw := range c.Steps {
		s, err := DecodeStep(raw)
		if err != nil {
			return nil, fmt.Errorf("config: step %d: %w", i, err)
		}
		op, err := s.Op(base)
		if err != nil {
			return nil, fmt.Errorf("config: step %d (%s): %w", i, s.Name, err)
		}
		p = append(p, op)
	}
	return p, nil
}

// DecodeStep decodes a single step table. Single values are accepted where
// a list is expected, and unknown keys are an error.
func DecodeStep(raw map[string]interface{}) (Step, error) {
	var s Step
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &s,
	})
	if err != nil {
		return s, err
	}
	if err := d.Decode(raw); err != nil {
		return s, err
	}
	return s, nil
}

func (s Step) options(base hypia.Options) (hypia.Options, error) {
	opt := base
	var err error
	if s.Layout != nil {
		if opt.Layout, err = hypia.ParseLayout(*s.Layout); err != nil {
			return opt, err
		}
	}
	if s.Order != nil {
		if opt.Order, err = hypia.OrderOf(*s.Order); err != nil {
			return opt, err
		}
	}
	if s.Border != nil {
		if opt.Border, err = hypia.ParseBorder(*s.Border); err != nil {
			return opt, err
		}
	}
	if s.AntiAlias != nil {
		opt.AntiAlias = *s.AntiAlias
	}
	if s.Cval != nil {
		opt.Cval = *s.Cval
	}
	if s.Clip != nil {
		opt.Clip = *s.Clip
	}
	return opt, nil
}

// Op converts s to a pipeline step, starting from the options in base.
func (s Step) Op(base hypia.Options) (hypia.Op, error) {
	opt, err := s.options(base)
	if err != nil {
		return hypia.Op{}, err
	}

	switch s.Name {
	case "normalize":
		if len(s.Mean) == 0 || len(s.Std) == 0 {
			return hypia.Op{}, fmt.Errorf("mean and std are required")
		}
		return hypia.NormalizeOp(s.Mean, s.Std, opt), nil
	case "resize":
		size, err := s.size()
		if err != nil {
			return hypia.Op{}, err
		}
		return hypia.ResizeOp(size, opt), nil
	case "rescale":
		switch len(s.Scale) {
		case 1:
			return hypia.RescaleOp(hypia.Uniform(s.Scale[0]), opt), nil
		case 2:
			return hypia.RescaleOp(hypia.Scale{Y: s.Scale[0], X: s.Scale[1]}, opt), nil
		}
		return hypia.Op{}, fmt.Errorf("scale needs 1 or 2 values, have %d", len(s.Scale))
	case "crop", "erase", "zoom":
		box, err := s.box()
		if err != nil {
			return hypia.Op{}, err
		}
		switch s.Name {
		case "crop":
			return hypia.CropOp(box, opt), nil
		case "erase":
			return hypia.EraseOp(box, s.Value, opt), nil
		}
		return hypia.ZoomOp(box, opt), nil
	case "hflip":
		return hypia.HFlipOp(opt), nil
	case "vflip":
		return hypia.VFlipOp(opt), nil
	case "rotate":
		return hypia.RotateOp(s.Angle, s.Reshape, opt), nil
	case "shear":
		return hypia.ShearOp(s.Angle, opt), nil
	case "stretch":
		return hypia.StretchOp(s.Angle, opt), nil
	case "affine":
		p := hypia.AffineParams{Rotation: s.Rotation, Shear: s.Shear}
		switch len(s.Scale) {
		case 0:
		case 2:
			p.Scale = &[2]float64{s.Scale[0], s.Scale[1]}
		default:
			return hypia.Op{}, fmt.Errorf("scale needs 2 values, have %d", len(s.Scale))
		}
		switch len(s.Translation) {
		case 0:
		case 2:
			p.Translation = [2]float64{s.Translation[0], s.Translation[1]}
		default:
			return hypia.Op{}, fmt.Errorf("translation needs 2 values, have %d", len(s.Translation))
		}
		return hypia.AffineOp(p, opt), nil
	}
	return hypia.Op{}, fmt.Errorf("unknown op %q", s.Name)
}

func (s Step) size() (hypia.Size, error) {
	switch len(s.Size) {
	case 1:
		return hypia.Square(s.Size[0]), nil
	case 2:
		return hypia.SpatialShape(s.Size[0], s.Size[1]), nil
	case 3:
		return hypia.FullShape(s.Size[0], s.Size[1], s.Size[2]), nil
	}
	return hypia.Size{}, fmt.Errorf("size needs 1 to 3 values, have %d", len(s.Size))
}

func (s Step) box() (hypia.Box, error) {
	if len(s.Box) != 4 {
		return hypia.Box{}, fmt.Errorf("box needs 4 values (top, left, height, width), have %d", len(s.Box))
	}
	return hypia.Box{Top: s.Box[0], Left: s.Box[1], Height: s.Box[2], Width: s.Box[3]}, nil
}
