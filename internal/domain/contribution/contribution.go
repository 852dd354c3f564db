// Package contribution models pending skill proposals awaiting review.
package contribution

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Prefix starts every contribution key.
const Prefix = "contrib:"

// StatusPending is the only state a stored contribution has.
const StatusPending = "pending"

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidKey    = errors.New("invalid key")
)

// Contribution is one submitted proposal. Key is filled in on read.
type Contribution struct {
	Key         string    `json:"key,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	Raw         string    `json:"raw"`
	SubmittedAt time.Time `json:"submittedAt"`
	Status      string    `json:"status"`
}

// New validates the required fields and builds a pending contribution.
func New(name, description, body, raw string, now time.Time) (Contribution, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(description) == "" || strings.TrimSpace(body) == "" {
		return Contribution{}, ErrMissingFields
	}
	return Contribution{
		Name:        name,
		Description: description,
		Body:        body,
		Raw:         raw,
		SubmittedAt: now.UTC(),
		Status:      StatusPending,
	}, nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses every other run of characters to "-".
func Slugify(name string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// NewKey builds contrib:<epochMillis>:<slug>.
func NewKey(name string, at time.Time) string {
	return Prefix + strconv.FormatInt(at.UnixMilli(), 10) + ":" + Slugify(name)
}

// ValidateKey rejects ids that are not contribution keys.
func ValidateKey(key string) error {
	if len(key) <= len(Prefix) || !strings.HasPrefix(key, Prefix) {
		return ErrInvalidKey
	}
	return nil
}

// Pattern matches every contribution key.
func Pattern() string { return Prefix + "*" }
