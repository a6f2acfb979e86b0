// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers a YAML file and REGISTER_* environment variables on top.
//   - Validate reports every problem wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Record store backends.
const (
	BackendSQLite   = "sqlite"
	BackendAirtable = "airtable"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ProjectName and ProjectVersion are reported by /stats.
	ProjectName    string `koanf:"project_name"`
	ProjectVersion string `koanf:"project_version"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// StoreBackend is either "sqlite" or "airtable".
	StoreBackend string `koanf:"store_backend"`

	// SQLitePath is the database file for the sqlite backend. ":memory:" is accepted.
	SQLitePath string `koanf:"sqlite_path"`

	// Airtable connection settings.
	AirtableBaseURL string `koanf:"airtable_base_url"`
	AirtableBaseID  string `koanf:"airtable_base_id"`
	AirtableToken   string `koanf:"airtable_token"`

	// StoreTimeoutMS bounds every record store call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// DefaultPageSize is used by member listings when pageSize is absent.
	DefaultPageSize int `koanf:"default_page_size"`

	// Table names in the record store.
	MembersTable    string `koanf:"members_table"`
	EventsTable     string `koanf:"events_table"`
	AttendanceTable string `koanf:"attendance_table"`
	BranchesTable   string `koanf:"branches_table"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		ProjectName:     "Service Register",
		ProjectVersion:  "1.0.0",
		AllowedOrigins:  []string{"*"},
		StoreBackend:    BackendSQLite,
		SQLitePath:      "register.db",
		AirtableBaseURL: "https://api.airtable.com/v0",
		StoreTimeoutMS:  10_000,
		DefaultPageSize: 100,
		MembersTable:    "Members",
		EventsTable:     "Services",
		AttendanceTable: "Service Attendance",
		BranchesTable:   "Branches",
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "addr must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q must be text or json", c.LogFormat))
	}
	switch c.StoreBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "sqlite_path must not be empty")
		}
	case BackendAirtable:
		if c.AirtableBaseURL == "" {
			problems = append(problems, "airtable_base_url must not be empty")
		}
		if c.AirtableBaseID == "" {
			problems = append(problems, "airtable_base_id must not be empty")
		}
		if c.AirtableToken == "" {
			problems = append(problems, "airtable_token must not be empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("store_backend %q must be sqlite or airtable", c.StoreBackend))
	}
	if c.StoreTimeoutMS <= 0 {
		problems = append(problems, "store_timeout_ms must be positive")
	}
	if c.DefaultPageSize <= 0 {
		problems = append(problems, "default_page_size must be positive")
	}
	for key, table := range map[string]string{
		"members_table":    c.MembersTable,
		"events_table":     c.EventsTable,
		"attendance_table": c.AttendanceTable,
		"branches_table":   c.BranchesTable,
	} {
		if table == "" {
			problems = append(problems, key+" must not be empty")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
