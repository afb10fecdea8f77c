package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/merge"
)

// Category bands the overall score of a document set.
type Category string

const (
	CategoryLow           Category = "LOW_RISK"
	CategoryMediumLow     Category = "MEDIUM_LOW_RISK"
	CategoryMedium        Category = "MEDIUM_RISK"
	CategoryMediumHigh    Category = "MEDIUM_HIGH_RISK"
	CategoryHigh          Category = "HIGH_RISK"
	CategoryNoDocuments   Category = "NO_DOCUMENTS"
	CategoryProcessingErr Category = "PROCESSING_ERROR"
)

// Status is the verdict for a document set.
type Status string

const (
	StatusVerified       Status = "VERIFIED"
	StatusReviewRequired Status = "REVIEW_REQUIRED"
	StatusFlagged        Status = "FLAGGED"
	StatusRejected       Status = "REJECTED"
	StatusHighRisk       Status = "HIGH_RISK"
)

// DocumentAnalysis summarizes consistency across the set.
type DocumentAnalysis struct {
	TotalDocuments      int      `json:"total_documents"`
	CompleteDocuments   int      `json:"complete_documents"`
	IncompleteDocuments int      `json:"incomplete_documents"`
	UniqueNames         int      `json:"unique_names"`
	UniqueCountries     int      `json:"unique_countries"`
	UniqueDOBs          int      `json:"unique_dobs"`
	NamesFound          []string `json:"names_found"`
	CountriesFound      []string `json:"countries_found"`
}

// BatchRisk is the overall assessment of a document set.
type BatchRisk struct {
	Score           float64           `json:"overall_risk_score"`
	Status          Status            `json:"overall_status"`
	Category        Category          `json:"risk_category"`
	ConfidenceLevel string            `json:"confidence_level"`
	DocumentScores  []int             `json:"individual_document_scores,omitempty"`
	Analysis        *DocumentAnalysis `json:"document_analysis,omitempty"`
	Factors         []string          `json:"risk_factors"`
	Recommendations []string          `json:"recommendations"`
	BaseAverageRisk float64           `json:"base_average_risk"`
	RiskAdjustments float64           `json:"risk_adjustments"`
}

// AssessBatch averages document scores and adjusts for cross-document
// inconsistencies, completeness, set size and expired documents.
func AssessBatch(docs []*merge.Result, now time.Time) BatchRisk {
	if len(docs) == 0 {
		return BatchRisk{
			Score: 100, Status: StatusHighRisk, Category: CategoryNoDocuments, ConfidenceLevel: "LOW",
			Factors:         []string{"No documents processed"},
			Recommendations: []string{"Upload valid identity documents for verification"},
		}
	}

	var scores []int
	var names, countries, dobs, expiries []string
	for _, d := range docs {
		if d == nil {
			continue
		}
		scores = append(scores, AssessDocument(d, now).Score)
		if v := d.Value(constants.FieldFullName); v != "" {
			names = append(names, v)
		}
		if v := d.Value(constants.FieldCountry); v != "" {
			countries = append(countries, v)
		}
		if v := d.Value(constants.FieldDateOfBirth); v != "" {
			dobs = append(dobs, v)
		}
		if v := d.Value(constants.FieldExpiryDate); v != "" {
			expiries = append(expiries, v)
		}
	}
	if len(scores) == 0 {
		return BatchRisk{
			Score: 100, Status: StatusHighRisk, Category: CategoryProcessingErr, ConfidenceLevel: "LOW",
			Factors:         []string{"Failed to process documents"},
			Recommendations: []string{"Resubmit documents in supported formats"},
		}
	}

	count := len(scores)
	sum := 0
	complete := 0
	for _, s := range scores {
		sum += s
		if s == 0 {
			complete++
		}
	}
	avg := float64(sum) / float64(count)

	uniqueNames := unique(names)
	uniqueCountries := unique(countries)
	uniqueDOBs := unique(dobs)

	var factors []string
	adj := 0.0
	if len(uniqueNames) > 1 {
		factors = append(factors, "Multiple different names found across documents")
		adj += 15
	}
	if len(uniqueCountries) > 1 {
		factors = append(factors, "Multiple different countries found across documents")
		adj += 10
	}
	if len(uniqueDOBs) > 1 {
		factors = append(factors, "Multiple different dates of birth found")
		adj += 20
	}
	if incomplete := count - complete; incomplete > 0 {
		factors = append(factors, fmt.Sprintf("%d documents missing critical information", incomplete))
		adj += float64(incomplete) / float64(count) * 25
	}
	switch {
	case count < 2:
		factors = append(factors, "Insufficient number of documents for verification")
		adj += 15
	case count >= 5:
		factors = append(factors, "Comprehensive document portfolio provided")
		adj -= 5
	}
	switch {
	case len(names) == 0:
		factors = append(factors, "No names extracted from any document")
		adj += 30
	case len(names) >= 3 && len(uniqueNames) == 1:
		factors = append(factors, "Consistent name across multiple documents")
		adj -= 10
	}
	expired := 0
	for _, e := range expiries {
		if t, err := time.Parse(time.DateOnly, e); err == nil && t.Before(now) {
			expired++
		}
	}
	if expired > 0 {
		factors = append(factors, fmt.Sprintf("%d expired cards/documents found", expired))
		adj += float64(expired) * 15
	}

	final := math.Min(100, math.Max(0, avg+adj))
	category, status, confidence := band(final)
	if len(factors) == 0 {
		factors = []string{"No significant risk factors identified"}
	}

	return BatchRisk{
		Score:           round2(final),
		Status:          status,
		Category:        category,
		ConfidenceLevel: confidence,
		DocumentScores:  scores,
		Analysis: &DocumentAnalysis{
			TotalDocuments:      count,
			CompleteDocuments:   complete,
			IncompleteDocuments: count - complete,
			UniqueNames:         len(uniqueNames),
			UniqueCountries:     len(uniqueCountries),
			UniqueDOBs:          len(uniqueDOBs),
			NamesFound:          uniqueNames,
			CountriesFound:      uniqueCountries,
		},
		Factors:         factors,
		Recommendations: recommendations(final, factors, count),
		BaseAverageRisk: round2(avg),
		RiskAdjustments: round2(adj),
	}
}

func band(score float64) (Category, Status, string) {
	switch {
	case score <= 20:
		return CategoryLow, StatusVerified, "HIGH"
	case score <= 40:
		return CategoryMediumLow, StatusVerified, "MEDIUM"
	case score <= 60:
		return CategoryMedium, StatusReviewRequired, "MEDIUM"
	case score <= 80:
		return CategoryMediumHigh, StatusFlagged, "MEDIUM"
	}
	return CategoryHigh, StatusRejected, "HIGH"
}

func recommendations(score float64, factors []string, count int) []string {
	var out []string
	switch {
	case score <= 20:
		out = append(out, "Customer verification complete - proceed with onboarding", "All documents appear authentic and consistent")
	case score <= 40:
		out = append(out, "Minor inconsistencies detected - consider additional verification", "Review flagged items before final approval")
	case score <= 60:
		out = append(out, "Manual review required before proceeding", "Consider contacting customer for clarification")
	case score <= 80:
		out = append(out, "High risk detected - thorough investigation required", "Do not proceed without senior approval")
	default:
		out = append(out, "Reject application - too many risk factors", "Request fresh document submission")
	}

	all := strings.Join(factors, "\n")
	if strings.Contains(all, "Multiple different names") {
		out = append(out, "Verify name variations with additional ID documents")
	}
	if strings.Contains(all, "Multiple different countries") {
		out = append(out, "Confirm customer's nationality and residence status")
	}
	if strings.Contains(all, "Insufficient number of documents") {
		out = append(out, "Request additional supporting documents")
	}
	if count >= 5 && score <= 30 {
		out = append(out, "Comprehensive documentation provided - fast-track eligible")
	}
	return out
}

// unique returns the distinct values in sorted order.
func unique(vs []string) []string {
	seen := make(map[string]bool, len(vs))
	out := []string{}
	for _, v := range vs {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
