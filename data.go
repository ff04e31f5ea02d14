// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// A pipeline is written as a sequence of steps separated by "/". Each step
// is a transform name optionally followed by ":" and a comma-separated list
// of arguments:
//
//	normalize:m0.1;0.2,s1;2     mean and std, one value or one per channel
//	resize:64x32                size: n, hxw or hxwxc
//	rescale:0.5x0.25            factors: f or fyxfx
//	crop:y2,x2,h4,w4            box top, left, height, width (also zoom)
//	erase:y2,x2,h4,w4,v0        box and fill value
//	hflip, vflip
//	rotate:a1.57,reshape        angle in radians, optional reshape
//	shear:a0.3, stretch:a0.3    angle in radians
//	affine:s2x2,r0.1,sh0.2,t3x4 scale, rotation, shear, translation
//
// Any step also accepts the shared options: "first" or "last" (layout),
// "o<n>" (interpolation order), "aa" (anti-alias), a border name ("edge",
// "constant", "reflect", "mirror", "wrap"), "cv<v>" (constant fill value)
// and "clip".

func (o Options) tokens() []string {
	var t []string
	if o.Layout != ChannelsFirst {
		t = append(t, o.Layout.String())
	}
	if o.Order != DefaultOrder {
		t = append(t, o.Order.String())
	}
	if o.AntiAlias {
		t = append(t, "aa")
	}
	if o.Border != BorderEdge {
		t = append(t, o.Border.String())
	}
	if o.Cval != 0 {
		t = append(t, "cv"+formatFloat(o.Cval))
	}
	if o.Clip {
		t = append(t, "clip")
	}
	return t
}

// parseOption applies the shared option token part to o. It reports
// whether part was an option token.
func (o *Options) parseOption(part string) (bool, error) {
	switch part {
	case "first":
		o.Layout = ChannelsFirst
		return true, nil
	case "last":
		o.Layout = ChannelsLast
		return true, nil
	case "aa":
		o.AntiAlias = true
		return true, nil
	case "clip":
		o.Clip = true
		return true, nil
	}
	if b, err := ParseBorder(part); err == nil {
		o.Border = b
		return true, nil
	}

	if strings.HasPrefix(part, "cv") {
		v, err := strconv.ParseFloat(part[2:], 64)
		if err != nil {
			return true, fmt.Errorf("invalid fill value %q", part)
		}
		o.Cval = v
		return true, nil
	}
	if len(part) > 1 && part[0] == 'o' {
		n, err := strconv.Atoi(part[1:])
		if err != nil {
			return true, fmt.Errorf("invalid order %q", part)
		}
		if o.Order, err = OrderOf(n); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

func (op Op) String() string {
	buf := new(bytes.Buffer)
	buf.WriteString(op.Kind.String())

	var args []string
	switch op.Kind {
	case KindNormalize:
		args = append(args, "m"+formatList(op.Mean), "s"+formatList(op.Std))
	case KindResize:
		args = append(args, op.Size.String())
	case KindRescale:
		args = append(args, op.Scale.String())
	case KindCrop, KindZoom:
		args = append(args, op.Box.String())
	case KindErase:
		args = append(args, op.Box.String(), "v"+formatFloat(op.Value))
	case KindRotate:
		args = append(args, "a"+formatFloat(op.Angle))
		if op.Reshape {
			args = append(args, "reshape")
		}
	case KindShear, KindStretch:
		args = append(args, "a"+formatFloat(op.Angle))
	case KindAffine:
		p := op.Affine
		if p.Scale != nil {
			args = append(args, "s"+formatPair(*p.Scale))
		}
		if p.Rotation != 0 {
			args = append(args, "r"+formatFloat(p.Rotation))
		}
		if p.Shear != 0 {
			args = append(args, "sh"+formatFloat(p.Shear))
		}
		if p.Translation != [2]float64{} {
			args = append(args, "t"+formatPair(p.Translation))
		}
	}
	args = append(args, op.Options.tokens()...)

	if len(args) > 0 {
		buf.WriteString(":")
		buf.WriteString(strings.Join(args, ","))
	}
	return buf.String()
}

func (p Pipeline) String() string {
	steps := make([]string, len(p))
	for i, op := range p {
		steps[i] = op.String()
	}
	return strings.Join(steps, "/")
}

// ParsePipeline parses a pipeline written in the form produced by
// Pipeline.String. An empty string is an empty pipeline.
func ParsePipeline(str string) (Pipeline, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, nil
	}
	var p Pipeline
	for _, step := range strings.Split(str, "/") {
		op, err := ParseOp(step)
		if err != nil {
			return nil, err
		}
		p = append(p, op)
	}
	return p, nil
}

// ParseOp parses a single pipeline step.
func ParseOp(str string) (Op, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(str), ":")
	op := Op{}
	for k, n := range kindNames {
		if n == name {
			op.Kind = k
		}
	}
	if op.Kind == 0 {
		return Op{}, &ParseError{str, fmt.Sprintf("unknown transform %q", name)}
	}

	var box boxParser
	var hasSize, hasScale, hasAngle bool
	if rest != "" {
		for _, part := range strings.Split(rest, ",") {
			if ok, err := op.Options.parseOption(part); ok {
				if err != nil {
					return Op{}, &ParseError{str, err.Error()}
				}
				continue
			}

			var err error
			switch op.Kind {
			case KindNormalize:
				err = op.parseNormalize(part)
			case KindResize:
				op.Size, err = ParseSize(part)
				hasSize = err == nil
			case KindRescale:
				op.Scale, err = parseScale(part)
				hasScale = err == nil
			case KindCrop, KindZoom:
				err = box.parse(part)
			case KindErase:
				if strings.HasPrefix(part, "v") {
					op.Value, err = strconv.ParseFloat(part[1:], 64)
				} else {
					err = box.parse(part)
				}
			case KindRotate:
				if part == "reshape" {
					op.Reshape = true
					continue
				}
				fallthrough
			case KindShear, KindStretch:
				op.Angle, err = parsePrefixed(part, "a")
				hasAngle = err == nil
			case KindAffine:
				err = op.Affine.parse(part)
			default:
				err = fmt.Errorf("%s takes no arguments", op.Kind)
			}
			if err != nil {
				return Op{}, &ParseError{str, fmt.Sprintf("argument %q: %v", part, err)}
			}
		}
	}

	var missing string
	switch op.Kind {
	case KindNormalize:
		if op.Mean == nil || op.Std == nil {
			missing = "mean and std"
		}
	case KindResize:
		if !hasSize {
			missing = "size"
		}
	case KindRescale:
		if !hasScale {
			missing = "scale"
		}
	case KindCrop, KindZoom, KindErase:
		if !box.complete() {
			missing = "box"
		}
		op.Box = box.Box
	case KindRotate, KindShear, KindStretch:
		if !hasAngle {
			missing = "angle"
		}
	}
	if missing != "" {
		return Op{}, &ParseError{str, "missing " + missing}
	}
	return op, nil
}

func (op *Op) parseNormalize(part string) error {
	if len(part) < 2 {
		return fmt.Errorf("unknown argument")
	}
	v, err := parseList(part[1:])
	if err != nil {
		return err
	}
	switch part[0] {
	case 'm':
		op.Mean = v
	case 's':
		op.Std = v
	default:
		return fmt.Errorf("unknown argument")
	}
	return nil
}

func (p *AffineParams) parse(part string) error {
	var err error
	switch {
	case strings.HasPrefix(part, "sh"):
		p.Shear, err = strconv.ParseFloat(part[2:], 64)
	case strings.HasPrefix(part, "s"):
		var s [2]float64
		s, err = parsePair(part[1:])
		p.Scale = &s
	case strings.HasPrefix(part, "r"):
		p.Rotation, err = strconv.ParseFloat(part[1:], 64)
	case strings.HasPrefix(part, "t"):
		p.Translation, err = parsePair(part[1:])
	default:
		err = fmt.Errorf("unknown argument")
	}
	return err
}

// boxParser collects the four box tokens of a step.
type boxParser struct {
	Box
	seen [4]bool
}

func (b *boxParser) parse(part string) error {
	if len(part) < 2 {
		return fmt.Errorf("unknown argument")
	}
	n, err := strconv.Atoi(part[1:])
	if err != nil {
		return err
	}
	i := strings.IndexByte("yxhw", part[0])
	switch i {
	case 0:
		b.Top = n
	case 1:
		b.Left = n
	case 2:
		b.Height = n
	case 3:
		b.Width = n
	default:
		return fmt.Errorf("unknown argument")
	}
	b.seen[i] = true
	return nil
}

func (b *boxParser) complete() bool {
	return b.seen == [4]bool{true, true, true, true}
}

func parsePrefixed(part, prefix string) (float64, error) {
	if !strings.HasPrefix(part, prefix) {
		return 0, fmt.Errorf("unknown argument")
	}
	return strconv.ParseFloat(part[len(prefix):], 64)
}

func parseScale(str string) (Scale, error) {
	y, x, found := strings.Cut(str, "x")
	fy, err := strconv.ParseFloat(y, 64)
	if err != nil {
		return Scale{}, err
	}
	if !found {
		return Uniform(fy), nil
	}
	fx, err := strconv.ParseFloat(x, 64)
	if err != nil {
		return Scale{}, err
	}
	return Scale{Y: fy, X: fx}, nil
}

func parsePair(str string) ([2]float64, error) {
	a, b, found := strings.Cut(str, "x")
	if !found {
		return [2]float64{}, fmt.Errorf("want two values separated by x")
	}
	fa, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return [2]float64{}, err
	}
	fb, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return [2]float64{}, err
	}
	return [2]float64{fa, fb}, nil
}

func formatPair(v [2]float64) string {
	return formatFloat(v[0]) + "x" + formatFloat(v[1])
}

func parseList(str string) ([]float64, error) {
	parts := strings.Split(str, ";")
	v := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

func formatList(v []float64) string {
	s := make([]string, len(v))
	for i, f := range v {
		s[i] = formatFloat(f)
	}
	return strings.Join(s, ";")
}
