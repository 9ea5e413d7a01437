// Package config defines the format-agnostic model of a graph workspace:
// the vertices and edges loaded into the graph store and the named
// traversal definitions compiled against it, along with the Loader
// interface implemented by concrete formats.
//
// The `config.Model` is the single source of truth for the `app` and
// `registry` packages. The HCL implementation lives in the hcl package.
package config
