package parser

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/tfindex/internal/block"
)

// hclParser handles native-syntax .tf files.
type hclParser struct{}

func newHCLParser() *hclParser {
	return &hclParser{}
}

func (p *hclParser) Parse(path, src string, opts Options) (*block.ParseResult, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(src), path)
	if file == nil || file.Body == nil {
		return &block.ParseResult{}, fmt.Errorf("parse %s: %s", path, diags.Error())
	}

	res := decodeBody(path, src, file.Body, opts, func(kind block.Kind, typ, name string) []string {
		return nativeAnchors(kind, typ, name)
	})
	// Syntax diagnostics with a usable body are soft: the walk already
	// extracted what it could.
	res.Errors = append(diagErrors(path, diags), res.Errors...)
	return res, nil
}
