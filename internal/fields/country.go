package fields

import (
	"context"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/countrydb"
)

const (
	sourceCountryDB      = "country/db"
	sourceCountryKeyword = "country/keyword"
)

// CountryLayer proposes country names and ISO alpha-2 codes.
type CountryLayer struct{}

func (CountryLayer) Name() string { return "country" }

// commonCountries backs the keyword pass that runs without the database.
var commonCountries = countrydb.NewIndex([]countrydb.Country{
	{Alpha2: "US", Alpha3: "USA", Name: "United States", Aliases: []string{"USA", "United States of America"}},
	{Alpha2: "GB", Alpha3: "GBR", Name: "United Kingdom", Aliases: []string{"UK", "Great Britain", "British"}},
	{Alpha2: "CA", Alpha3: "CAN", Name: "Canada"},
	{Alpha2: "AU", Alpha3: "AUS", Name: "Australia"},
	{Alpha2: "DE", Alpha3: "DEU", Name: "Germany", Aliases: []string{"Deutschland"}},
	{Alpha2: "FR", Alpha3: "FRA", Name: "France"},
	{Alpha2: "IT", Alpha3: "ITA", Name: "Italy", Aliases: []string{"Italia"}},
	{Alpha2: "ES", Alpha3: "ESP", Name: "Spain", Aliases: []string{"España"}},
	{Alpha2: "PT", Alpha3: "PRT", Name: "Portugal"},
	{Alpha2: "NL", Alpha3: "NLD", Name: "Netherlands", Aliases: []string{"Nederland"}},
	{Alpha2: "BE", Alpha3: "BEL", Name: "Belgium"},
	{Alpha2: "CH", Alpha3: "CHE", Name: "Switzerland"},
	{Alpha2: "AT", Alpha3: "AUT", Name: "Austria"},
	{Alpha2: "IE", Alpha3: "IRL", Name: "Ireland"},
	{Alpha2: "SE", Alpha3: "SWE", Name: "Sweden"},
	{Alpha2: "NO", Alpha3: "NOR", Name: "Norway"},
	{Alpha2: "DK", Alpha3: "DNK", Name: "Denmark"},
	{Alpha2: "PL", Alpha3: "POL", Name: "Poland"},
	{Alpha2: "MX", Alpha3: "MEX", Name: "Mexico"},
	{Alpha2: "BR", Alpha3: "BRA", Name: "Brazil"},
	{Alpha2: "IN", Alpha3: "IND", Name: "India"},
	{Alpha2: "CN", Alpha3: "CHN", Name: "China"},
	{Alpha2: "JP", Alpha3: "JPN", Name: "Japan"},
	{Alpha2: "NG", Alpha3: "NGA", Name: "Nigeria"},
	{Alpha2: "ZA", Alpha3: "ZAF", Name: "South Africa"},
})

func (l CountryLayer) Extract(_ context.Context, text string, env Env) LayerOutcome {
	lo := LayerOutcome{Layer: l.Name(), Status: constants.StatusOK}
	var c collector

	if env.has(constants.CapCountryDB) && env.Countries != nil {
		addCountries(&c, env.Countries.Match(text), sourceCountryDB, constants.ConfidenceMedium)
	} else {
		lo.Status = constants.StatusDegraded
		lo.Diagnostic = "country_db unavailable; keyword list only"
	}
	addCountries(&c, commonCountries.Match(text), sourceCountryKeyword, constants.ConfidenceLow)

	lo.Candidates = c.out
	return lo
}

func addCountries(c *collector, ms []countrydb.Match, source string, conf constants.Confidence) {
	for _, m := range ms {
		c.add(constants.FieldCountry, m.Country.Name, source, conf)
		c.add(constants.FieldCountryCode, m.Country.Alpha2, source, conf)
	}
}
