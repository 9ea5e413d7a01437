// Package app contains the core application logic. It loads a graph
// workspace, compiles its traversals, and runs them either once from the
// command line or on demand behind the HTTP and socket.io endpoints,
// decoupled from any specific entrypoint.
package app
