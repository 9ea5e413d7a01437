// Package hcl provides the concrete HCL implementation of the configuration
// loading and data conversion interfaces defined in the `config` package.
// It is responsible for file discovery and parsing, HCL-to-model
// translation, and CTY-to-Go data binding.
//
// A workspace is any number of .hcl files holding three block types:
//
//	vertex "1" {
//	  label      = "person"
//	  properties = { name = "marko", age = 29 }
//	}
//
//	edge "10" {
//	  label = "knows"
//	  out_v = 1
//	  in_v  = 2
//	}
//
//	traversal "distinct_neighbour_names" {
//	  source = "V"
//	  step "local" {
//	    step "both" {}
//	    step "values" { keys = ["name"] }
//	    step "dedup" {}
//	    step "count" {}
//	  }
//	}
package hcl
