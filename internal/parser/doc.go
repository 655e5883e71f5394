// Package parser turns one file's raw text into Block records.
//
// The grammar work is delegated to hashicorp/hcl: native syntax for .tf
// files, the HCL-JSON dialect for .tf.json files. Both produce an hcl.Body,
// so a single body walk extracts the six recognized block kinds from either
// format.
//
// Block extents are NOT taken from the grammar layer. They are estimated
// lexically: a kind-specific regular expression anchors the declaration in
// the raw text, then a brace-depth scan (string-literal aware) runs until
// the depth returns to zero. A failed anchor degrades to a short sentinel
// range instead of an error; downstream consumers tolerate low-fidelity
// ranges. All offsets are rune indices into the decoded text.
package parser
