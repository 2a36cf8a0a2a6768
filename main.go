// =============================================================================
// CDATA Enricher - Main Entry Point
// =============================================================================
//
// This is the main entry point for the CDATA Enricher CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   enricher enrich <file>  - Enrich a single document
//   enricher process        - Enrich all documents in the input directory
//   enricher serve          - Run the HTTP enrichment endpoint
//   enricher lookup         - Check the product lookup table
//   enricher version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Envelope handling, parsing, enrichment, formatting
//   - pkg/           : Shared file and encoding utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/cdata-enricher/cmd"
)

func main() {
	cmd.Execute()
}
