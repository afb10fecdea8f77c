package countrydb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "countries.db")

	n, err := Seed(ctx, path)
	require.NoError(t, err)
	seed, err := SeedCountries()
	require.NoError(t, err)
	assert.Equal(t, len(seed), n)

	// reseeding is an upsert, not a duplicate insert
	_, err = Seed(ctx, path)
	require.NoError(t, err)

	idx, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, n, idx.Len())

	fr, ok := idx.ByAlpha3("fra")
	require.True(t, ok)
	assert.Equal(t, "France", fr.Name)
	assert.Equal(t, "FR", fr.Alpha2)
	assert.Contains(t, fr.Aliases, "French")
}

func TestOpen_MissingFileDoesNotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := Open(context.Background(), path)
	require.Error(t, err)
	_, err = Load(context.Background(), path)
	require.Error(t, err)
	_, err = Open(context.Background(), "")
	require.Error(t, err)
}

func TestLoad_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "empty.db")
	s, err := Create(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Load(ctx, path)
	assert.ErrorContains(t, err, "no countries")
}

func testIndex() *Index {
	return NewIndex([]Country{
		{Alpha2: "NE", Alpha3: "NER", Name: "Niger", Aliases: []string{"Nigerien"}},
		{Alpha2: "NG", Alpha3: "NGA", Name: "Nigeria", Aliases: []string{"Nigerian"}},
		{Alpha2: "ZA", Alpha3: "ZAF", Name: "South Africa"},
		{Alpha2: "GB", Alpha3: "GBR", Name: "United Kingdom", Aliases: []string{"British", "UK"}},
		{Alpha2: "FR", Alpha3: "FRA", Name: "France", Aliases: []string{"French"}},
	})
}

func TestIndex_Match(t *testing.T) {
	idx := testIndex()

	ms := idx.Match("Born in Nigeria, resident of South Africa. Nationality: British")
	require.Len(t, ms, 3)
	assert.Equal(t, "NG", ms[0].Country.Alpha2)
	assert.Equal(t, "Nigeria", ms[0].Term)
	assert.Equal(t, "name", ms[0].Via)
	assert.Equal(t, "ZA", ms[1].Country.Alpha2)
	assert.Equal(t, "GB", ms[2].Country.Alpha2)
	assert.Equal(t, "alias", ms[2].Via)
}

func TestIndex_WordBoundaries(t *testing.T) {
	idx := testIndex()
	assert.Empty(t, idx.Match("Frances Nigerianville franceX"))
	ms := idx.Match("(france)")
	require.Len(t, ms, 1)
	assert.Equal(t, "france", ms[0].Term)
}

func TestIndex_Alpha3NeedsLabel(t *testing.T) {
	idx := testIndex()

	ms := idx.Match("Nationality: GBR\nCode FRA")
	require.Len(t, ms, 2)
	assert.Equal(t, "GB", ms[0].Country.Alpha2)
	assert.Equal(t, "alpha3", ms[0].Via)
	assert.Equal(t, "FR", ms[1].Country.Alpha2)

	assert.Empty(t, idx.Match("REF GBR 1234"))
	assert.Empty(t, idx.Match("Nationality: XYZ"))
}
