package seeding

import "os"

// ShowHelp prints usage information for the seeding tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Register Seeding Tool
=====================

Creates a branch, members, two Sunday services and attendance through the
HTTP API, then checks the lapsed-attendees report against what was written.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -members int
        Number of members to create (default 50)
  -workers int
        Number of concurrent writers (default 8)
  -return int
        Percent of first-service attendees marked at the second (default 60)
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Log every write
  -help
        Show this help message

Examples:
  # Seed a local server
  go run ./cmd/seed

  # Seed through the versioned prefix with more members
  go run ./cmd/seed -url http://localhost:8080/api/v1 -members 500 -workers 16
`)
}
