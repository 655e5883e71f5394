package parser

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/tfindex/internal/block"
)

// topLevelSchema names the six recognized constructs. Everything else in a
// file (provider, terraform, moved, ...) is deliberately left to the
// "remain" side of PartialContent.
var topLevelSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "resource", LabelNames: []string{"type", "name"}},
		{Type: "data", LabelNames: []string{"type", "name"}},
		{Type: "module", LabelNames: []string{"name"}},
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
		{Type: "locals"},
	},
}

// anchorsFunc builds the range-anchor patterns for one block; native syntax
// and the JSON dialect anchor differently.
type anchorsFunc func(kind block.Kind, typ, name string) []string

// decodeBody walks an hcl.Body (from either dialect) and emits one Block per
// recognized declaration. Per-block problems are accumulated; they never
// abort the walk.
func decodeBody(path, src string, body hcl.Body, opts Options, anchors anchorsFunc) *block.ParseResult {
	res := &block.ParseResult{Blocks: []*block.Block{}, Errors: []block.ParseError{}}

	content, _, diags := body.PartialContent(topLevelSchema)
	res.Errors = append(res.Errors, diagErrors(path, diags)...)
	if content == nil {
		return res
	}

	scanner := newRangeScanner(src)

	for _, blk := range content.Blocks {
		kind, ok := block.ParseKind(blk.Type)
		if !ok {
			continue
		}
		if !opts.includes(kind) {
			continue
		}

		b := &block.Block{
			BlockKind:  kind,
			ModulePath: opts.ModulePath.Copy(),
			File:       path,
		}

		switch kind {
		case block.KindResource, block.KindData:
			if len(blk.Labels) < 2 {
				res.Errors = append(res.Errors, labelError(path, blk, "expected type and name labels"))
				continue
			}
			b.Type = blk.Labels[0]
			b.Name = blk.Labels[1]
			b.Provider = block.ProviderForType(b.Type)
		case block.KindModule:
			if len(blk.Labels) < 1 {
				res.Errors = append(res.Errors, labelError(path, blk, "expected name label"))
				continue
			}
			b.Name = blk.Labels[0]
			b.SourceExpr = moduleSource(blk.Body)
		case block.KindVariable, block.KindOutput:
			if len(blk.Labels) < 1 {
				res.Errors = append(res.Errors, labelError(path, blk, "expected name label"))
				continue
			}
			b.Name = blk.Labels[0]
		case block.KindLocals:
			// One Block per locals{} occurrence; no per-entry identity.
		}

		b.Range = scanner.estimate(anchors(kind, b.Type, b.Name)...)
		res.Blocks = append(res.Blocks, b)
	}

	return res
}

// moduleSource extracts the literal `source` attribute of a module call.
// Non-literal or absent sources yield "".
func moduleSource(body hcl.Body) string {
	content, _, _ := body.PartialContent(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{{Name: "source"}},
	})
	if content == nil {
		return ""
	}
	attr, ok := content.Attributes["source"]
	if !ok {
		return ""
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || val.IsNull() || val.Type() != cty.String {
		return ""
	}
	return val.AsString()
}

// diagErrors converts HCL error diagnostics into ParseErrors.
func diagErrors(path string, diags hcl.Diagnostics) []block.ParseError {
	var out []block.ParseError
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		pe := block.ParseError{Message: d.Summary, File: path}
		if d.Detail != "" {
			pe.Message = d.Summary + ": " + d.Detail
		}
		if d.Subject != nil {
			pe.Line = d.Subject.Start.Line
			pe.Column = d.Subject.Start.Column
		}
		out = append(out, pe)
	}
	return out
}

func labelError(path string, blk *hcl.Block, msg string) block.ParseError {
	pe := block.ParseError{
		Message: fmt.Sprintf("%s block: %s", blk.Type, msg),
		File:    path,
	}
	if blk.DefRange.Start.Line > 0 {
		pe.Line = blk.DefRange.Start.Line
		pe.Column = blk.DefRange.Start.Column
	}
	return pe
}
