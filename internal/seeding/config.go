// Package seeding fills a running register with generated members, service
// events and attendance over its HTTP API, then checks the reports against
// what it wrote.
package seeding

import (
	"time"

	"github.com/okian/register/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL       string        // Base URL of the service, with or without /api/v1
	Members       int           // Number of members to create
	Workers       int           // Number of concurrent writers
	Timeout       time.Duration // HTTP request timeout
	ReturnPercent int           // Share of first-event attendees marked at the second event, 0..100
	FirstDate     string        // Date of the first service
	SecondDate    string        // Date of the second service
	Verbose       bool          // Log every write
}

// Result is what a run wrote and what the service reported back.
type Result struct {
	Branch   model.Branch
	Members  []model.Member
	First    model.ServiceEvent
	Second   model.ServiceEvent
	Returned map[string]bool // member ids marked at the second event
	Lapsed   []model.Member  // lapsed report as served
}

// Stats holds run statistics.
type Stats struct {
	MembersCreated   int
	AttendanceMarked int
	LapsedExpected   int
	LapsedReported   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
