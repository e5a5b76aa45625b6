/*
main.go - Application entry point

PURPOSE:
  CLI for the charge rate engine. The default deployment runs `serve`; the
  other commands answer one-off questions from a terminal.

COMMANDS:
  serve     Start the HTTP API
  rate      Resolve an apprentice pay rate through the fallback cascade
  estimate  Run the cost model for a pay rate, no store needed

CONFIGURATION:
  --config points at an optional YAML file. Every key can be overridden from
  the environment with the CHARGERATE_ prefix, e.g.
  CHARGERATE_RATE_SOURCE_BASE_URL or CHARGERATE_DATABASE_PATH.

EXAMPLES:
  # Run with file database
  ./server serve --db ./data/charge_rates.db

  # Run with the in-memory store
  ./server serve --db memory

  # Resolve a 2nd year electrical rate for 2025
  ./server rate --award MA000025 --year 2025 --level 2

  # Cost model for $25/hour with a 20% margin
  ./server estimate --pay-rate 25 --margin 0.2

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
