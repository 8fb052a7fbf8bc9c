package csv

import (
	"strings"
)

const (
	delimiterSampleLines = 5
	delimiterSampleBytes = 4096
)

var candidateDelimiters = []CsvDelimiter{DelimiterComma, DelimiterSemicolon, DelimiterTab}

// DetectDelimiter detects the CSV delimiter by analyzing the first few lines.
// Delimiters inside quoted fields are ignored so a quoted "$1,234.56" in a
// semicolon file does not vote for comma.
func DetectDelimiter(content string) CsvDelimiter {
	sampleLines := make([]string, 0, delimiterSampleLines)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			sampleLines = append(sampleLines, trimmed)
			if len(sampleLines) >= delimiterSampleLines {
				break
			}
		}
	}

	if len(sampleLines) == 0 {
		return DelimiterComma
	}

	bestDelimiter := DelimiterComma
	maxConsistency := 0.0

	for _, delim := range candidateDelimiters {
		sep := rune(delim[0])

		sum := 0
		counts := make([]int, len(sampleLines))
		for i, line := range sampleLines {
			counts[i] = countUnquoted(line, sep)
			sum += counts[i]
		}

		avgCount := float64(sum) / float64(len(counts))
		if avgCount == 0 {
			continue
		}

		// All lines should have similar counts
		variance := 0.0
		for _, c := range counts {
			diff := float64(c) - avgCount
			variance += diff * diff
		}
		variance /= float64(len(counts))

		consistency := avgCount / (1.0 + variance)
		if consistency > maxConsistency {
			maxConsistency = consistency
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectDelimiterFromBytes detects delimiter from the start of raw content
func DetectDelimiterFromBytes(data []byte) CsvDelimiter {
	if len(data) > delimiterSampleBytes {
		data = data[:delimiterSampleBytes]
	}
	return DetectDelimiter(string(data))
}

func countUnquoted(line string, sep rune) int {
	count := 0
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == sep && !inQuotes:
			count++
		}
	}
	return count
}
