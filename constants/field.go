package constants

// Field is the name of a structured output field.
type Field string

const (
	FieldFullName    Field = "full_name"
	FieldDateOfBirth Field = "date_of_birth"
	FieldExpiryDate  Field = "expiry_date"
	FieldIssueDate   Field = "issue_date"
	FieldCountry     Field = "country"
	FieldCountryCode Field = "country_code"
)

var allFields = []Field{
	FieldFullName,
	FieldDateOfBirth,
	FieldExpiryDate,
	FieldIssueDate,
	FieldCountry,
	FieldCountryCode,
}

// AllFields returns the output fields in registration order.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// Confidence is the trust tier of a candidate value.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // NER or keyword-anchored structured parse
	ConfidenceMedium Confidence = "medium" // database lookup or unanchored structured parse
	ConfidenceLow    Confidence = "low"    // regex or keyword heuristic
)

// Rank orders tiers: high > medium > low > anything else.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}
