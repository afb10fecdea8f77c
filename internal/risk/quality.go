package risk

import (
	"math"
	"strings"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/merge"
)

// QualityLevel bands the extraction quality score.
type QualityLevel string

const (
	QualityExcellent QualityLevel = "EXCELLENT"
	QualityGood      QualityLevel = "GOOD"
	QualityFair      QualityLevel = "FAIR"
	QualityPoor      QualityLevel = "POOR"
	QualityVeryPoor  QualityLevel = "VERY_POOR"
)

var qualityFields = []constants.Field{
	constants.FieldFullName,
	constants.FieldDateOfBirth,
	constants.FieldCountry,
	constants.FieldCountryCode,
	constants.FieldExpiryDate,
}

// Quality describes how much usable data an extraction produced.
type Quality struct {
	Score             int          `json:"quality_score"`
	Level             QualityLevel `json:"quality_level"`
	CompletenessRatio float64      `json:"completeness_ratio"` // percent, one decimal
	FieldsExtracted   int          `json:"fields_extracted"`
	TotalFields       int          `json:"total_fields"`
	Issues            []string     `json:"quality_issues"`
}

// AssessQuality scores text length, field completeness and extractor health.
func AssessQuality(res *merge.Result) Quality {
	score := 100
	var issues []string
	sub := func(points int, why string) {
		score -= points
		issues = append(issues, why)
	}

	switch {
	case res.TextLength < 50:
		sub(30, "Very short text extracted - possible OCR issues")
	case res.TextLength < 100:
		sub(15, "Limited text extracted")
	}

	filled := 0
	for _, f := range qualityFields {
		if res.Value(f) != "" {
			filled++
		}
	}
	ratio := float64(filled) / float64(len(qualityFields))
	switch {
	case ratio < 0.4:
		sub(40, "Most critical fields missing")
	case ratio < 0.6:
		sub(25, "Several important fields missing")
	case ratio < 0.8:
		sub(10, "Some fields missing")
	}

	var ocrFailed, otherFailed, degraded bool
	for _, o := range res.Extraction {
		switch {
		case o.Status == constants.StatusFailed && strings.HasSuffix(o.Extractor, "-ocr"):
			ocrFailed = true
		case o.Status == constants.StatusFailed:
			otherFailed = true
		case o.Status == constants.StatusDegraded:
			degraded = true
		}
	}
	if ocrFailed {
		sub(35, "OCR processing failed")
	}
	if otherFailed {
		sub(25, "Document processing errors detected")
	}
	if degraded {
		sub(20, "Fallback extraction path used")
	}

	score = max(score, 0)
	if len(issues) == 0 {
		issues = []string{"No quality issues detected"}
	}
	return Quality{
		Score:             score,
		Level:             qualityLevelOf(score),
		CompletenessRatio: math.Round(ratio*1000) / 10,
		FieldsExtracted:   filled,
		TotalFields:       len(qualityFields),
		Issues:            issues,
	}
}

func qualityLevelOf(score int) QualityLevel {
	switch {
	case score >= 90:
		return QualityExcellent
	case score >= 75:
		return QualityGood
	case score >= 60:
		return QualityFair
	case score >= 40:
		return QualityPoor
	}
	return QualityVeryPoor
}
