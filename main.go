// =============================================================================
// Registration Reconciler - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Registration Reconciler CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   reconciler reconcile        - Write the attendee roster
//   reconciler filter-payments  - Export qualifying payment ledger rows
//   reconciler version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Ledger decoding, grouping, reporting and output
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/registration-reconciler/cmd"
)

func main() {
	cmd.Execute()
}
