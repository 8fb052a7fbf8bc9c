package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorefacciones/import-service/internal/types"
)

var testItems = []Item{
	{ProviderSku: "SKU001", Name: "Honda CBR600 Brake Pad", Brand: "Honda", Model: "CBR600"},
	{ProviderSku: "SKU002", Name: "Yamaha R1 Oil Filter", Brand: "Yamaha", Model: "R1"},
	{ProviderSku: "SKU003", Name: "Kawasaki Ninja Chain", Brand: "Kawasaki", Model: "Ninja"},
}

var testImages = []types.ImageFile{
	{FileName: "honda-cbr600-brake-pad.jpg", URL: "https://example.com/image1.jpg"},
	{FileName: "yamaha-r1-oil-filter.png", URL: "https://example.com/image2.png"},
	{FileName: "kawasaki-ninja-chain.jpg", URL: "https://example.com/image3.jpg"},
	{FileName: "unrelated-image.jpg", URL: "https://example.com/image4.jpg"},
}

func TestFuzzyMatchImages(t *testing.T) {
	matches := FuzzyMatchImages(testItems, testImages, DefaultThreshold)

	require.Len(t, matches, 3)
	assert.Equal(t, "SKU001", matches[0].ProviderSku)
	assert.Equal(t, "honda-cbr600-brake-pad.jpg", matches[0].FileName)
	assert.Equal(t, "https://example.com/image1.jpg", matches[0].URL)
	assert.Equal(t, "SKU002", matches[1].ProviderSku)
	assert.Equal(t, "SKU003", matches[2].ProviderSku)

	for _, m := range matches {
		assert.NotEqual(t, "unrelated-image.jpg", m.FileName)
	}
}

func TestFuzzyMatchImagesExactMatchIsHighConfidence(t *testing.T) {
	matches := FuzzyMatchImages(testItems, []types.ImageFile{
		{FileName: "honda-cbr600-brake-pad.jpg", URL: "https://example.com/exact.jpg"},
	}, DefaultThreshold)

	require.Len(t, matches, 1)
	assert.Equal(t, ConfidenceHigh, matches[0].Confidence)
	assert.Less(t, matches[0].Score, 0.2)
}

func TestFuzzyMatchImagesEmptyInputs(t *testing.T) {
	assert.Empty(t, FuzzyMatchImages(nil, testImages, DefaultThreshold))
	assert.Empty(t, FuzzyMatchImages(testItems, nil, DefaultThreshold))
	assert.NotNil(t, FuzzyMatchImages(nil, nil, DefaultThreshold))
}

func TestFuzzyMatchImagesIgnoresCaseAndExtension(t *testing.T) {
	matches := FuzzyMatchImages(testItems, []types.ImageFile{
		{FileName: "HONDA-CBR600-BRAKE-PAD.PNG", URL: "https://example.com/test.png"},
		{FileName: "honda_cbr600.webp", URL: "https://example.com/test.webp"},
	}, DefaultThreshold)

	require.Len(t, matches, 2)
	assert.Equal(t, "SKU001", matches[0].ProviderSku)
	assert.Equal(t, "SKU001", matches[1].ProviderSku)
}

func TestFuzzyMatchImagesMediumConfidence(t *testing.T) {
	matches := FuzzyMatchImages(testItems, []types.ImageFile{
		{FileName: "cadena-kawasaki.jpg", URL: "u1"},
		{FileName: "yamaha-oil-filtr.jpg", URL: "u2"},
	}, DefaultThreshold)

	require.Len(t, matches, 2)
	assert.Equal(t, "SKU002", matches[0].ProviderSku)
	assert.InDelta(t, 0.25, matches[0].Score, 0.0001)
	assert.Equal(t, ConfidenceMedium, matches[0].Confidence)
	assert.Equal(t, "SKU003", matches[1].ProviderSku)
	assert.Equal(t, ConfidenceMedium, matches[1].Confidence)
}

func TestFuzzyMatchImagesThreshold(t *testing.T) {
	strict := FuzzyMatchImages(testItems, testImages, 0.1)
	loose := FuzzyMatchImages(testItems, testImages, 0.8)

	assert.GreaterOrEqual(t, len(loose), len(strict))
	assert.Len(t, loose, 4)

	last := loose[len(loose)-1]
	assert.Equal(t, "unrelated-image.jpg", last.FileName)
	assert.Equal(t, ConfidenceLow, last.Confidence)
}

func TestFuzzyMatchImagesSortedByScore(t *testing.T) {
	images := append([]types.ImageFile{{FileName: "yamaha-oil-filtr.jpg", URL: "u"}}, testImages...)
	matches := FuzzyMatchImages(testItems, images, 0.8)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i].Score, matches[i-1].Score)
	}
}

func TestFuzzyMatchImagesFallsBackToURLName(t *testing.T) {
	matches := FuzzyMatchImages(testItems, []types.ImageFile{
		{URL: "https://cdn.example.com/uploads/kawasaki-ninja-chain.jpg"},
	}, DefaultThreshold)

	require.Len(t, matches, 1)
	assert.Equal(t, "SKU003", matches[0].ProviderSku)
}

func TestGetSuggestedMatchesForSku(t *testing.T) {
	images := []types.ImageFile{
		{FileName: "unrelated.jpg", URL: "https://example.com/image3.jpg"},
		{FileName: "honda-cbr600-brake-pad.jpg", URL: "https://example.com/image1.jpg"},
		{FileName: "honda-cbr600.jpg", URL: "https://example.com/image2.jpg"},
	}

	suggestions := GetSuggestedMatchesForSku("SKU001", images, testItems[:1])

	require.Len(t, suggestions, 2)
	assert.Equal(t, "honda-cbr600-brake-pad.jpg", suggestions[0].FileName)
	assert.Equal(t, "honda-cbr600.jpg", suggestions[1].FileName)
}

func TestGetSuggestedMatchesForUnknownSku(t *testing.T) {
	suggestions := GetSuggestedMatchesForSku("INVALID", testImages, testItems)
	assert.Empty(t, suggestions)
	assert.NotNil(t, suggestions)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score("cbr600", "honda cbr600 brake pad"))
	// a query longer than the text is compared whole: 16 deletions over 22 runes
	assert.InDelta(t, 16.0/22.0, Score("honda cbr600 brake pad", "cbr600"), 0.0001)
	assert.Equal(t, 1.0, Score("ab", "abc"))
	assert.Equal(t, 1.0, Score("", "anything"))
	assert.InDelta(t, 1.0/6.0, Score("cbr601", "honda cbr600"), 0.0001)
}

func TestFuzzyMatchImagesPrefersSpecificItemOverShortName(t *testing.T) {
	items := []Item{
		{ProviderSku: "A1", Name: "Casco"},
		{ProviderSku: "B2", Name: "Casco Integral Shoei RF1400"},
	}

	matches := FuzzyMatchImages(items, []types.ImageFile{
		{FileName: "casco-integral-shoei-rf1400.jpg", URL: "https://example.com/rf1400.jpg"},
	}, DefaultThreshold)

	require.Len(t, matches, 1)
	assert.Equal(t, "B2", matches[0].ProviderSku)
	assert.Equal(t, 0.0, matches[0].Score)
	assert.Equal(t, ConfidenceHigh, matches[0].Confidence)
}

func TestFuzzyMatchImagesShortNameAloneIsNotAMatch(t *testing.T) {
	items := []Item{{ProviderSku: "A1", Name: "Casco"}}

	matches := FuzzyMatchImages(items, []types.ImageFile{
		{FileName: "casco-integral-shoei-rf1400.jpg", URL: "https://example.com/rf1400.jpg"},
	}, DefaultThreshold)

	assert.Empty(t, matches)
}

func TestFuzzyMatchImagesTieGoesToTighterText(t *testing.T) {
	items := []Item{
		{ProviderSku: "B2", Name: "Casco Integral Shoei RF1400"},
		{ProviderSku: "A1", Name: "Casco"},
	}

	matches := FuzzyMatchImages(items, []types.ImageFile{
		{FileName: "casco.jpg", URL: "https://example.com/casco.jpg"},
	}, DefaultThreshold)

	require.Len(t, matches, 1)
	assert.Equal(t, "A1", matches[0].ProviderSku)
}

func TestScoreIsDirectional(t *testing.T) {
	assert.Equal(t, 0.0, Score("casco", "casco integral shoei rf1400"))
	assert.Greater(t, Score("casco integral shoei rf1400", "casco"), DefaultThreshold)
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ConfidenceFor(0))
	assert.Equal(t, ConfidenceHigh, ConfidenceFor(0.19))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(0.2))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(0.39))
	assert.Equal(t, ConfidenceLow, ConfidenceFor(0.4))
}

func TestNormalizeSearchText(t *testing.T) {
	assert.Equal(t, "balata delantera cbr", NormalizeSearchText(StripExtension("Balata_Delantera-CBR.jpg")))
	assert.Equal(t, "pinon acero", NormalizeSearchText("  Piñón   Acero "))
	assert.Equal(t, "honda cbr600 honda sku001", BuildSearchText(Item{ProviderSku: "SKU001", Name: "Honda", Model: "CBR600", Brand: "Honda"}))
}

func TestItemFromStaged(t *testing.T) {
	item := ItemFromStaged(types.StagedItem{
		ProviderSku: "A1",
		Name:        "Filtro",
		Brand:       types.StringPtr("Italika"),
	})

	assert.Equal(t, Item{ProviderSku: "A1", Name: "Filtro", Brand: "Italika"}, item)
}
