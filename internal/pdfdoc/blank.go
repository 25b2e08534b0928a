package pdfdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Blank returns a document with n empty pages of the given size in points.
func Blank(width, height float64, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("blank document needs at least one page, got %d", n)
	}
	ctx, err := pdfcpu.CreateContextWithXRefTable(NewConfig(), &types.Dim{Width: width, Height: height})
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	root, err := ctx.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to locate page tree: %w", err)
	}
	tree, err := ctx.DereferenceDict(*root)
	if err != nil {
		return nil, fmt.Errorf("failed to read page tree: %w", err)
	}

	mediaBox := types.RectForDim(width, height)
	for i := 0; i < n; i++ {
		page, err := ctx.EmptyPage(root, mediaBox, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		if err := ctx.SetValid(*page); err != nil {
			return nil, err
		}
		if err := model.AppendPageTree(page, 1, tree); err != nil {
			return nil, fmt.Errorf("failed to append page: %w", err)
		}
		ctx.PageCount++
	}
	return writeContext(ctx)
}
