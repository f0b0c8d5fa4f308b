/*
main.go - Application entry point

PURPOSE:
  The winning command: HTTP server plus a few operator commands that
  share one configuration (see config/config.go).

COMMANDS:
  serve       Start the HTTP API with graceful shutdown
  calendar    Print a month grid
  reconcile   Run one win reconciliation sweep
  seed        Reset the database and load a demo scenario

EXAMPLES:
  # Run with file database
  winning serve --db ./data/winning.db

  # Throwaway server with demo data
  winning serve --db :memory: --seed solo-planner

  # Monday-first grid for March
  winning calendar 2024-03 --first-weekday monday

ENVIRONMENT:
  Every config key can be set as WINNING_<KEY>, e.g. WINNING_DB.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
