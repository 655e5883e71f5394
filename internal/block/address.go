package block

import "strings"

// Address builds the fully-qualified address string of a block: the module
// path segments followed by a kind-specific suffix, all period-joined.
//
//	resource aws_vpc "main" in module.net  ->  module.net.aws_vpc.main
//	data aws_ami "ubuntu" at root          ->  data.aws_ami.ubuntu
//	module "vpc"                           ->  module.vpc
//	variable "region"                      ->  var.region
//	output "id"                            ->  id
//	locals {}                              ->  local.
//
// Addresses are the only edge-identity mechanism in this codebase; pointer
// identity of Block values is never relied on, since an incremental update
// replaces every Block of a changed file with fresh values.
func Address(b *Block) string {
	parts := make([]string, 0, len(b.ModulePath)+1)
	parts = append(parts, b.ModulePath...)
	switch b.BlockKind {
	case KindResource:
		parts = append(parts, b.Type+"."+b.Name)
	case KindData:
		parts = append(parts, "data."+b.Type+"."+b.Name)
	case KindModule:
		parts = append(parts, "module."+b.Name)
	case KindVariable:
		parts = append(parts, "var."+b.Name)
	case KindOutput:
		parts = append(parts, b.Name)
	case KindLocals:
		parts = append(parts, "local."+b.Name)
	}
	return strings.Join(parts, ".")
}
