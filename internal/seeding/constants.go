package seeding

import "time"

// Flag defaults for the seeding tool.
const (
	DefaultMembers       = 50
	DefaultWorkers       = 8
	DefaultTimeout       = 30 * time.Second
	DefaultReturnPercent = 60
	DefaultFirstDate     = "2024-06-02"
	DefaultSecondDate    = "2024-06-09"
)

// PercentageMultiplier converts ratios to percentages.
const PercentageMultiplier = 100
