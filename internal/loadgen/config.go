// Package loadgen drives concurrent rating traffic against a running
// skillhub server and checks that the aggregates account for every
// accepted rating.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL string        // Base URL of the service
	Slugs   []string      // Skills to rate; empty means every skill in the catalog
	Ratings int           // Number of ratings to submit
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every failed submission
}

// Stats holds run statistics.
type Stats struct {
	Generated int
	Submitted int
	Accepted  int
	Rejected  int
	Failed    int
	Skills    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Submission is one generated rating and where it goes.
type Submission struct {
	Slug      string `json:"-"`
	Name      string `json:"name"`
	Seniority string `json:"seniority"`
	Score     int    `json:"score"`
	Comment   string `json:"comment,omitempty"`
}

type aggScore struct {
	Sum   int64   `json:"sum"`
	Count int64   `json:"count"`
	Avg   float64 `json:"avg"`
}

type skillRatings struct {
	Curator aggScore `json:"curator"`
	User    aggScore `json:"user"`
}
