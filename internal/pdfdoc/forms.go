package pdfdoc

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

type formGroup struct {
	Forms []formFill `json:"forms"`
}

type formFill struct {
	TextFields []textField `json:"textfield"`
}

type textField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// fillJSON renders values in pdfcpu's form-fill JSON format.
func fillJSON(values map[string]string) ([]byte, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fill := formFill{}
	for _, name := range names {
		fill.TextFields = append(fill.TextFields, textField{Name: name, Value: values[name]})
	}
	b, err := json.Marshal(formGroup{Forms: []formFill{fill}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode form values: %w", err)
	}
	return b, nil
}

// fieldNames walks the AcroForm field tree and returns terminal field names
// joined with "." the way viewers display them.
func fieldNames(ctx *model.Context) []string {
	root, err := ctx.Catalog()
	if err != nil {
		return nil
	}
	obj, ok := root.Find("AcroForm")
	if !ok {
		return nil
	}
	form, err := ctx.DereferenceDict(obj)
	if err != nil || form == nil {
		return nil
	}
	fields, ok := form.Find("Fields")
	if !ok {
		return nil
	}
	var names []string
	collectFields(ctx, fields, "", &names, 0)
	return names
}

func collectFields(ctx *model.Context, obj types.Object, prefix string, names *[]string, depth int) {
	if depth > 32 {
		return
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return
	}
	for _, o := range arr {
		d, err := ctx.DereferenceDict(o)
		if err != nil || d == nil {
			continue
		}
		name := prefix
		if t, ok := d.Find("T"); ok {
			if part := textValue(ctx, t); part != "" {
				if name != "" {
					name += "."
				}
				name += part
			}
		}
		if kids, ok := d.Find("Kids"); ok && hasNamedKids(ctx, kids) {
			collectFields(ctx, kids, name, names, depth+1)
			continue
		}
		if name != "" {
			*names = append(*names, name)
		}
	}
}

// hasNamedKids distinguishes intermediate fields from terminal fields whose
// kids are only widget annotations.
func hasNamedKids(ctx *model.Context, kids types.Object) bool {
	arr, err := ctx.DereferenceArray(kids)
	if err != nil {
		return false
	}
	for _, o := range arr {
		d, err := ctx.DereferenceDict(o)
		if err != nil || d == nil {
			continue
		}
		if _, ok := d.Find("T"); ok {
			return true
		}
	}
	return false
}

func textValue(ctx *model.Context, obj types.Object) string {
	o, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}
	switch v := o.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	}
	return ""
}
