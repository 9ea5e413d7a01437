// Package registry provides the glue between declarative traversal
// definitions and the traversal engine.
//
// The Registry maps the step kinds used in configuration (e.g. "out",
// "values", "local") to the builder calls that append the matching steps,
// together with the typed arguments each kind accepts. Definitions are
// validated against the registered kinds before anything is compiled, so a
// typo in a workspace fails at load time with every problem listed, instead
// of surfacing halfway through a run.
package registry
