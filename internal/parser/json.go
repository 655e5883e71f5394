package parser

import (
	"fmt"

	hcljson "github.com/hashicorp/hcl/v2/json"

	"github.com/vk/tfindex/internal/block"
)

// jsonParser handles .tf.json files via the HCL-JSON dialect. The dialect
// presents the same hcl.Body interface as native syntax, so extraction is
// shared; only the range anchors differ (declarations nest as object keys,
// and singular blocks are not list-wrapped the way native decode trees are).
type jsonParser struct{}

func newJSONParser() *jsonParser {
	return &jsonParser{}
}

func (p *jsonParser) Parse(path, src string, opts Options) (*block.ParseResult, error) {
	file, diags := hcljson.Parse([]byte(src), path)
	if file == nil || file.Body == nil || diags.HasErrors() {
		// Malformed JSON is a whole-file failure. The JSON dialect has no
		// block-level recovery worth salvaging, unlike native syntax.
		return &block.ParseResult{}, fmt.Errorf("parse %s: %s", path, diags.Error())
	}

	res := decodeBody(path, src, file.Body, opts, func(kind block.Kind, _, name string) []string {
		return jsonAnchors(kind, name)
	})
	res.Errors = append(diagErrors(path, diags), res.Errors...)
	return res, nil
}
