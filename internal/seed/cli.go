package seed

import "os"

// ShowHelp prints usage information for the seed server.
func ShowHelp() {
	os.Stdout.WriteString(`Stash Battle Seed Server
========================

Serves a generated scene library over the media server wire protocol.
Point the engine's stash_url at this address to run without a real
media server.

Usage:
  go run cmd/seed/main.go [options]

Options:
  -addr string
        Listen address (default ":9999")
  -scenes int
        Number of scenes to generate (default 500)
  -seed int
        RNG seed; 0 uses the current time (default 0)
  -rated float
        Fraction of scenes generated with a rating (default 0.6)
  -help
        Show this help message

Examples:
  # Serve the default 500-scene library
  go run cmd/seed/main.go

  # A small, mostly unrated library with a fixed shape
  go run cmd/seed/main.go -scenes 50 -rated 0.2 -seed 42

  # On a different port
  go run cmd/seed/main.go -addr :9990
`)
}
