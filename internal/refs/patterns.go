package refs

import "regexp"

// The reference shapes recognized by the lexical scan. Identifiers follow
// HCL naming: letters, digits, underscores, and dashes after the first
// character.
var (
	// var.NAME
	varPattern = regexp.MustCompile(`\bvar\.([A-Za-z_][A-Za-z0-9_-]*)`)

	// TYPE.NAME. is the generic resource shape; the trailing dot is what
	// separates a reference from a bare two-part identifier. The leading
	// identifier is filtered against the dedicated shapes by the caller.
	resourcePattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_-]*)\.([A-Za-z_][A-Za-z0-9_-]*)?`)

	// data.TYPE.NAME[.ATTR]
	dataPattern = regexp.MustCompile(`\bdata\.([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_-]*)(?:\.([A-Za-z_][A-Za-z0-9_-]*))?`)

	// local.NAME
	localPattern = regexp.MustCompile(`\blocal\.([A-Za-z_][A-Za-z0-9_-]*)`)

	// module.NAME[.ATTR]
	moduleRefPattern = regexp.MustCompile(`\bmodule\.([A-Za-z_][A-Za-z0-9_-]*)(?:\.([A-Za-z_][A-Za-z0-9_-]*))?`)
)
