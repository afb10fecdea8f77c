// Package risk scores extracted identity documents singly and as a set.
// Time is always passed in so scores are reproducible.
package risk

import (
	"time"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/merge"
)

// Level is the descriptive band of a document risk score.
type Level string

const (
	LevelMinimal  Level = "MINIMAL"
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// flagThreshold is the score above which a document is flagged for review.
const flagThreshold = 50

// DocumentRisk is the risk assessment of one result.
type DocumentRisk struct {
	Score   int      `json:"risk_score"`
	Level   Level    `json:"risk_level"`
	Details []string `json:"risk_details"`
	Flagged bool     `json:"flagged"`
}

// AssessDocument scores missing critical fields and implausible dates.
func AssessDocument(res *merge.Result, now time.Time) DocumentRisk {
	score := 0
	var details []string
	add := func(points int, why string) {
		score += points
		details = append(details, why)
	}

	name := res.Value(constants.FieldFullName)
	switch {
	case name == "":
		add(25, "Missing name information")
	case len([]rune(name)) < 3:
		add(10, "Name appears incomplete")
	}

	if dob := res.Value(constants.FieldDateOfBirth); dob == "" {
		add(25, "Missing date of birth")
	} else if t, err := time.Parse(time.DateOnly, dob); err != nil {
		add(15, "Invalid date of birth format")
	} else {
		age := now.Sub(t).Hours() / 24 / 365.25
		switch {
		case age < 18:
			add(15, "Age below 18 years")
		case age > 100:
			add(20, "Unrealistic age detected")
		}
	}

	if res.Value(constants.FieldCountryCode) == "" {
		add(25, "Missing or unknown country information")
	}

	if exp := res.Value(constants.FieldExpiryDate); exp == "" {
		add(25, "Missing card expiry date")
	} else if t, err := time.Parse(time.DateOnly, exp); err != nil {
		add(15, "Invalid expiry date format")
	} else {
		switch {
		case t.Before(now):
			add(30, "Card/document has expired")
		case t.Sub(now) < 30*24*time.Hour:
			add(10, "Card/document expires soon")
		}
	}

	score = min(score, 100)
	if len(details) == 0 {
		details = []string{"No significant risk factors"}
	}
	return DocumentRisk{Score: score, Level: levelOf(score), Details: details, Flagged: score > flagThreshold}
}

func levelOf(score int) Level {
	switch {
	case score == 0:
		return LevelMinimal
	case score <= 25:
		return LevelLow
	case score <= 50:
		return LevelMedium
	case score <= 75:
		return LevelHigh
	}
	return LevelCritical
}
