package matching

import (
	"path"
	"sort"

	"github.com/motorefacciones/import-service/internal/types"
)

const (
	// DefaultThreshold is the highest score a match may have to be returned
	DefaultThreshold = 0.4
	// SuggestionThreshold bounds the per-SKU image suggestions (exclusive)
	SuggestionThreshold = 0.5

	// minPatternLength mirrors the shortest query worth searching for
	minPatternLength = 3

	highConfidenceBelow   = 0.2
	mediumConfidenceBelow = 0.4
)

// Confidence labels how good a returned match is
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Item is the subset of a staged item used for matching
type Item struct {
	ProviderSku string `json:"providerSku"`
	Name        string `json:"name"`
	Model       string `json:"model,omitempty"`
	Brand       string `json:"brand,omitempty"`
}

// ItemFromStaged builds a matching item from a staged item
func ItemFromStaged(s types.StagedItem) Item {
	return Item{
		ProviderSku: s.ProviderSku,
		Name:        s.Name,
		Model:       types.Deref(s.Model),
		Brand:       types.Deref(s.Brand),
	}
}

// ImageMatch is a suggested association between an uploaded image and a SKU
type ImageMatch struct {
	ProviderSku string     `json:"providerSku"`
	FileName    string     `json:"fileName"`
	URL         string     `json:"url"`
	Score       float64    `json:"score"`
	Confidence  Confidence `json:"confidence"`
}

// ConfidenceFor maps a score to its tier. Lower scores are better.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score < highConfidenceBelow:
		return ConfidenceHigh
	case score < mediumConfidenceBelow:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type searchableItem struct {
	item       Item
	searchText string
	name       string
}

// FuzzyMatchImages finds the best staged item for every image file. The
// filename is the query, searched in each item's search text and name.
// Images whose best score is above threshold produce no entry. Results are
// sorted best first; ties keep the order of imageFiles.
func FuzzyMatchImages(items []Item, imageFiles []types.ImageFile, threshold float64) []ImageMatch {
	matches := make([]ImageMatch, 0)
	if len(items) == 0 || len(imageFiles) == 0 {
		return matches
	}

	searchable := make([]searchableItem, len(items))
	for i, item := range items {
		searchable[i] = searchableItem{
			item:       item,
			searchText: BuildSearchText(item),
			name:       NormalizeSearchText(item.Name),
		}
	}

	for _, img := range imageFiles {
		query := NormalizeSearchText(StripExtension(imageFileName(img)))

		var best candidate
		bestIdx := -1
		for i, s := range searchable {
			c := scoreCandidate(query, s.searchText)
			if byName := scoreCandidate(query, s.name); byName.beats(c) {
				c = byName
			}
			if bestIdx < 0 || c.beats(best) {
				best = c
				bestIdx = i
			}
		}
		bestScore := best.score

		if bestIdx < 0 || bestScore > threshold {
			continue
		}

		matches = append(matches, ImageMatch{
			ProviderSku: searchable[bestIdx].item.ProviderSku,
			FileName:    img.FileName,
			URL:         img.URL,
			Score:       bestScore,
			Confidence:  ConfidenceFor(bestScore),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score < matches[j].Score
	})

	return matches
}

// GetSuggestedMatchesForSku ranks image files against one staged item. The
// item's search text and name are the queries, scored against each filename.
// Only images scoring below SuggestionThreshold are returned, best first.
// An unknown SKU yields an empty result.
func GetSuggestedMatchesForSku(providerSku string, imageFiles []types.ImageFile, items []Item) []types.ImageFile {
	suggestions := make([]types.ImageFile, 0)

	var target *Item
	for i := range items {
		if items[i].ProviderSku == providerSku {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return suggestions
	}

	queries := []string{BuildSearchText(*target), NormalizeSearchText(target.Name)}

	type scored struct {
		file  types.ImageFile
		score float64
	}
	ranked := make([]scored, 0, len(imageFiles))
	for _, img := range imageFiles {
		fileText := NormalizeSearchText(StripExtension(imageFileName(img)))
		score := 1.0
		for _, q := range queries {
			score = min(score, Score(q, fileText))
		}
		if score < SuggestionThreshold {
			ranked = append(ranked, scored{file: img, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score < ranked[j].score
	})

	for _, r := range ranked {
		suggestions = append(suggestions, r.file)
	}
	return suggestions
}

// Score is the normalized distance of query against text, in [0,1].
// A query no longer than text may match anywhere inside it, so 0 means text
// contains query verbatim. A longer query is compared as a whole string, so
// a short generic text never matches a long specific query. Distances are
// divided by the query length.
func Score(query, text string) float64 {
	pattern, target := []rune(query), []rune(text)
	if len(pattern) < minPatternLength {
		return 1
	}

	var dist int
	if len(pattern) <= len(target) {
		dist = substringDistance(pattern, target)
	} else {
		dist = editDistance(pattern, target)
	}

	score := float64(dist) / float64(len(pattern))
	if score > 1 {
		return 1
	}
	return score
}

// candidate is one scored comparison of a query with an item text
type candidate struct {
	score    float64
	coverage float64
	textLen  int
}

func scoreCandidate(query, text string) candidate {
	q, t := len([]rune(query)), len([]rune(text))
	c := candidate{score: Score(query, text), textLen: t}
	if q > 0 {
		c.coverage = float64(min(q, t)) / float64(q)
	}
	return c
}

// beats orders candidates by score, then by how much of the query the text
// can cover, then by the tighter (shorter) text.
func (c candidate) beats(o candidate) bool {
	if c.score != o.score {
		return c.score < o.score
	}
	if c.coverage != o.coverage {
		return c.coverage > o.coverage
	}
	return c.textLen < o.textLen
}

// editDistance is the plain Levenshtein distance between a and b
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j-1]+cost, prev[j]+1, cur[j-1]+1)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// substringDistance is the Sellers variant of Levenshtein distance:
// a match may start anywhere in text at no cost.
func substringDistance(pattern, text []rune) int {
	prev := make([]int, len(text)+1)
	cur := make([]int, len(text)+1)

	for i := 1; i <= len(pattern); i++ {
		cur[0] = i
		for j := 1; j <= len(text); j++ {
			cost := 1
			if pattern[i-1] == text[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j-1]+cost, prev[j]+1, cur[j-1]+1)
		}
		prev, cur = cur, prev
	}

	best := prev[0]
	for _, d := range prev[1:] {
		if d < best {
			best = d
		}
	}
	return best
}

func imageFileName(img types.ImageFile) string {
	if img.FileName != "" {
		return img.FileName
	}
	return path.Base(img.URL)
}
