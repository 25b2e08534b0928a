package grayscale

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/jackzampolin/booklet/internal/pdfdoc"
)

// Local converts documents in-process by rewriting each page's content
// stream and remapping DeviceCMYK colour-space resources to DeviceGray.
// Images and form XObjects are left untouched.
type Local struct {
	logger *slog.Logger
}

// NewLocal returns a local converter.
func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{logger: logger}
}

// ToGrayscale implements Converter.
func (l *Local) ToGrayscale(ctx context.Context, pdf []byte) ([]byte, error) {
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), pdfdoc.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	rewritten := 0
	for nr := 1; nr <= pctx.PageCount; nr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed, err := rewritePage(pctx, nr)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", nr, err)
		}
		if changed {
			rewritten++
		}
	}

	var out bytes.Buffer
	if err := api.WriteContext(pctx, &out); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	l.logger.Debug("local grayscale conversion done", "pages", pctx.PageCount, "rewritten", rewritten)
	return out.Bytes(), nil
}

func rewritePage(ctx *model.Context, nr int) (bool, error) {
	pageDict, _, inh, err := ctx.PageDict(nr, false)
	if err != nil {
		return false, err
	}
	if pageDict == nil {
		return false, fmt.Errorf("missing page dictionary")
	}

	if err := remapColorSpaces(ctx, pageDict, inh); err != nil {
		return false, err
	}

	if _, ok := pageDict.Find("Contents"); !ok {
		return false, nil
	}
	content, err := ctx.PageContent(pageDict, nr)
	if err != nil {
		return false, fmt.Errorf("failed to decode content: %w", err)
	}
	gray := RewriteContent(content)
	if bytes.Equal(gray, content) {
		return false, nil
	}

	sd, err := ctx.NewStreamDictForBuf(gray)
	if err != nil {
		return false, err
	}
	if err := sd.Encode(); err != nil {
		return false, err
	}
	ref, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return false, err
	}
	pageDict["Contents"] = *ref
	return true, nil
}

// remapColorSpaces swaps DeviceCMYK entries of the page's ColorSpace
// resources for DeviceGray.
func remapColorSpaces(ctx *model.Context, pageDict types.Dict, inh *model.InheritedPageAttrs) error {
	var res types.Dict
	if obj, ok := pageDict.Find("Resources"); ok {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return err
		}
		res = d
	} else if inh != nil {
		res = inh.Resources
	}
	if res == nil {
		return nil
	}
	obj, ok := res.Find("ColorSpace")
	if !ok {
		return nil
	}
	spaces, err := ctx.DereferenceDict(obj)
	if err != nil || spaces == nil {
		return err
	}
	for name, v := range spaces {
		if n, ok := v.(types.Name); ok && n == "DeviceCMYK" {
			spaces[name] = types.Name("DeviceGray")
		}
	}
	return nil
}
