// Package analysis aggregates extracted answers into per-question pattern
// statistics. Everything here is pure: no network calls, deterministic for a
// given input.
package analysis

import (
	"fmt"
	"sort"

	"github.com/alexanderveratry/Storm-gpt/internal/model"
)

// TopConcepts is how many ranked concepts are retained per question.
const TopConcepts = 10

// Synthesize builds one PatternStats per question from all extracted
// answers. Documents missing a well-formed analysis for a question are
// skipped silently for that question. Concepts are ranked by descending
// frequency with ties broken by first appearance across the document
// sequence.
func Synthesize(questions []string, answers []model.ExtractedAnswer) []model.PatternStats {
	stats := make([]model.PatternStats, 0, model.QuestionCount)

	for n := 1; n <= model.QuestionCount; n++ {
		var concepts []string
		var keyPoints []string
		qualityDist := make(map[model.QualityLabel]int)

		for _, doc := range answers {
			a, ok := doc.Answers[n]
			if !ok {
				continue
			}
			concepts = append(concepts, a.Concepts...)
			keyPoints = append(keyPoints, a.KeyPoints...)
			qualityDist[a.Quality]++
		}

		stats = append(stats, model.PatternStats{
			Question:     questions[n-1],
			TotalAnswers: len(answers),
			TopConcepts:  rankConcepts(concepts, TopConcepts),
			KeyPoints:    keyPoints,
			QualityDist:  qualityDist,
		})
	}

	return stats
}

// rankConcepts counts exact-match concept occurrences and returns the top n,
// most frequent first, ties in first-seen order.
func rankConcepts(concepts []string, n int) []model.ConceptCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for i, c := range concepts {
		if _, ok := counts[c]; !ok {
			firstSeen[c] = i
			order = append(order, c)
		}
		counts[c]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	ranked := make([]model.ConceptCount, 0, len(order))
	for _, c := range order {
		ranked = append(ranked, model.ConceptCount{Concept: c, Count: counts[c]})
	}
	return ranked
}

// Example is a high-quality answer excerpt fed to the rubric prompt.
type Example struct {
	Question int
	Student  string
	Answer   string
}

// HighQualityExamples collects up to limit answers rated alta, in
// document-then-question order, each truncated to maxChars runes.
func HighQualityExamples(answers []model.ExtractedAnswer, limit, maxChars int) []Example {
	var examples []Example
	for _, doc := range answers {
		for n := 1; n <= model.QuestionCount; n++ {
			if len(examples) >= limit {
				return examples
			}
			a, ok := doc.Answers[n]
			if !ok || a.Quality != model.QualityHigh {
				continue
			}
			examples = append(examples, Example{
				Question: n,
				Student:  doc.Student,
				Answer:   truncate(a.FullAnswer, maxChars),
			})
		}
	}
	return examples
}

// Percent renders count as a share of total with one decimal, e.g. "60.0%".
// Returns "0.0%" for a zero total.
func Percent(count, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(count)/float64(total)*100)
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
