// Package cli turns command-line arguments into an Invocation: the mode
// (run once or serve) and a validated app.Config. Usage mistakes surface as
// an *ExitError carrying exit code 2.
package cli
