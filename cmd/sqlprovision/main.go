// Package main provides the sqlprovision CLI.
//
// The CLI supports:
//   - generate: Render a client's deployment scripts from the template tree
//   - order: Show the execution order of a driver script
//   - doctor: Run health checks on the template tree and reference data
//   - keygen: Create a credential encryption key
//
// Usage:
//
//	sqlprovision [flags] <command>
//
// Settings come from flags, SQLPROVISION_* environment variables and an
// auto-discovered sqlprovision.yaml, in that order of precedence.
package main

func main() {
	Execute()
}
