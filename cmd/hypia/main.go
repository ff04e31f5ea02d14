// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

// hypia applies an augmentation pipeline to image files.
//
// Each input is decoded, converted to a multi-band image with samples in
// [0, 1], run through the pipeline and written back out as three bands:
//
//	hypia -ops 'hflip/rotate:a0.3/resize:64' -out /tmp/aug a.png b.jpg
//	hypia -config pipeline.toml -bands 2,1,0 scan.tif
//
// Every flag may also be set with a HYPIA_ environment variable.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/disintegration/imaging"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "golang.org/x/image/webp"

	"willnorris.com/go/hypia"
	"willnorris.com/go/hypia/config"
	"willnorris.com/go/hypia/third_party/envy"
)

var ops = flag.String("ops", "", "pipeline in compact syntax, e.g. hflip/resize:64")
var configFile = flag.String("config", "", "TOML file describing the pipeline")
var layout = flag.String("layout", "first", "channel layout the pipeline expects (first or last)")
var outDir = flag.String("out", ".", "directory to write results to")
var format = flag.String("format", "png", "output format (png, jpg, gif, tif or bmp)")
var lo = flag.Float64("lo", 0, "band value rendered as black")
var hi = flag.Float64("hi", 1, "band value rendered as white")
var metricsAddr = flag.String("metricsAddr", "", "TCP address to serve prometheus metrics on")
var bands = bandList{0, 1, 2}

func init() {
	flag.Var(&bands, "bands", "comma separated bands rendered as red, green and blue")
}

// bandList is a flag.Value holding three band indices.
type bandList [3]int

func (b *bandList) String() string {
	return fmt.Sprintf("%d,%d,%d", b[0], b[1], b[2])
}

func (b *bandList) Set(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return fmt.Errorf("need 3 bands, have %d", len(parts))
	}
	var v bandList
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return err
		}
		v[i] = n
	}
	*b = v
	return nil
}

func main() {
	envy.Parse("HYPIA")
	defer glog.Flush()

	if flag.NArg() == 0 {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	p, err := loadPipeline(*ops, *configFile)
	if err != nil {
		glog.Exitf("hypia: %v", err)
	}
	l, err := hypia.ParseLayout(*layout)
	if err != nil {
		glog.Exitf("hypia: %v", err)
	}

	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			glog.Infof("hypia: serving metrics on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				glog.Errorf("hypia: metrics server: %v", err)
			}
		}()
	}

	w := &writer{
		pipeline: p,
		layout:   l,
		dir:      *outDir,
		format:   *format,
		bands:    bands,
		lo:       *lo,
		hi:       *hi,
	}
	failed := false
	for _, path := range flag.Args() {
		if err := w.process(path); err != nil {
			glog.Errorf("hypia: %s: %v", path, err)
			failed = true
		}
	}
	if failed {
		glog.Flush()
		os.Exit(1)
	}
}

// loadPipeline builds a pipeline from the compact syntax in ops, followed by
// the steps of the TOML file at path if one is given.
func loadPipeline(ops, path string) (hypia.Pipeline, error) {
	p, err := hypia.ParsePipeline(ops)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return p, nil
	}
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	steps, err := c.Pipeline()
	if err != nil {
		return nil, err
	}
	return append(p, steps...), nil
}

// writer runs a pipeline over image files and saves the results.
type writer struct {
	pipeline hypia.Pipeline
	layout   hypia.Layout
	dir      string
	format   string
	bands    [3]int
	lo, hi   float64
}

func (w *writer) process(path string) error {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	m := hypia.FromImage(src, w.layout)
	if glog.V(1) {
		glog.Infof("hypia: %s: %v (%s)", path, m.Shape, footprint(m))
	}

	out, err := w.pipeline.Apply(m)
	if err != nil {
		return err
	}
	dst, err := hypia.ToImage(out, w.layout, w.bands, w.lo, w.hi)
	if err != nil {
		return err
	}
	name := outputPath(w.dir, path, w.format)
	if err := imaging.Save(dst, name); err != nil {
		return err
	}
	if glog.V(1) {
		glog.Infof("hypia: wrote %s: %v (%s)", name, out.Shape, footprint(out))
	}
	return nil
}

// outputPath names the result for input path: its base name with the
// extension of format, inside dir.
func outputPath(dir, path, format string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(dir, base+"."+strings.TrimPrefix(format, "."))
}

// footprint reports the in-memory size of m's samples.
func footprint(m *hypia.Image) string {
	return bytefmt.ByteSize(uint64(len(m.Pix)) * 8)
}
