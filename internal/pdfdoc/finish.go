package pdfdoc

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Compression selects how aggressively the final document is rewritten.
type Compression string

const (
	CompressionNone     Compression = "none"
	CompressionStandard Compression = "standard"
	CompressionMax      Compression = "max"
)

// ParseCompression validates a compression preset name. The empty string
// maps to CompressionNone.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionStandard, CompressionMax:
		return c, nil
	}
	return "", fmt.Errorf("unknown compression preset %q (want none, standard or max)", s)
}

const (
	pageNumberStyle  = "fontname:Helvetica, points:9, scalefactor:1 abs, rotation:0, fillcolor:#000000"
	pageNumberMargin = "28 20"
	watermarkStyle   = "scalefactor:0.6 rel, rotation:0, opacity:0.15"
)

// NumberPages stamps page numbers on pages first..last (1-based, inclusive).
// Even pages are numbered bottom-left, odd pages bottom-right.
func NumberPages(data []byte, first, last int) ([]byte, error) {
	var left, right []string
	for p := first; p <= last; p++ {
		if p%2 == 0 {
			left = append(left, strconv.Itoa(p))
		} else {
			right = append(right, strconv.Itoa(p))
		}
	}

	passes := []struct {
		pages []string
		desc  string
	}{
		{left, pageNumberStyle + ", position:bl, offset:" + pageNumberMargin},
		{right, pageNumberStyle + ", position:br, offset:-" + pageNumberMargin},
	}

	out := data
	for _, pass := range passes {
		if len(pass.pages) == 0 {
			continue
		}
		wm, err := api.TextWatermark("%p", pass.desc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("failed to build page number stamp: %w", err)
		}
		stamped, err := addWatermark(out, pass.pages, wm)
		if err != nil {
			return nil, fmt.Errorf("failed to stamp page numbers: %w", err)
		}
		out = stamped
	}
	return out, nil
}

// Watermark stamps a translucent image on every page.
func Watermark(data, image []byte) ([]byte, error) {
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(image), watermarkStyle, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark image: %w", err)
	}
	out, err := addWatermark(data, nil, wm)
	if err != nil {
		return nil, fmt.Errorf("failed to apply watermark: %w", err)
	}
	return out, nil
}

func addWatermark(data []byte, pages []string, wm *model.Watermark) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &buf, pages, wm, NewConfig()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compress rewrites data according to level.
func Compress(data []byte, level Compression) ([]byte, error) {
	switch level {
	case "", CompressionNone:
		return data, nil
	case CompressionStandard:
		return Resave(data)
	case CompressionMax:
		conf := streamConfig()
		conf.OptimizeDuplicateContentStreams = true
		var buf bytes.Buffer
		if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
			return nil, fmt.Errorf("failed to optimize: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown compression preset %q", level)
}

// Resave re-reads data and writes it back with object and xref streams.
func Resave(data []byte) ([]byte, error) {
	ctx, err := readContext(data, streamConfig())
	if err != nil {
		return nil, err
	}
	return writeContext(ctx)
}

// Rebuild copies every page into a fresh document, dropping objects that
// are not reachable from the page tree.
func Rebuild(data []byte) ([]byte, error) {
	ctx, err := readContext(data, NewConfig())
	if err != nil {
		return nil, err
	}
	nrs := make([]int, ctx.PageCount)
	for i := range nrs {
		nrs[i] = i + 1
	}
	fresh, err := pdfcpu.ExtractPages(ctx, nrs, false)
	if err != nil {
		return nil, fmt.Errorf("failed to copy pages: %w", err)
	}
	fresh.Configuration = streamConfig()
	return writeContext(fresh)
}

func streamConfig() *model.Configuration {
	conf := NewConfig()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	return conf
}

func writeContext(ctx *model.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
