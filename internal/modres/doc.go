// Package modres maps a module call's `source` string to a local directory.
//
// Two resolution paths are tried: plain local paths (./, ../, absolute)
// relative to the declaring file's directory, and the locally cached module
// manifest that `terraform init` writes under .terraform/modules. Sources
// that resolve to neither are classified (registry, git, unknown) and
// reported as unresolved with an informational error; those outcomes are
// common and never fatal. Remote fetching is out of scope.
package modres
