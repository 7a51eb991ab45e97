package agent

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/insighthub/core"
)

var (
	metricRe = regexp.MustCompile(`\d+(?:\.\d+)?%?`)
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

	statisticRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\$[\d,]+\.?\d*\s*(?:billion|million|trillion))`),
		regexp.MustCompile(`(\d+\.?\d*%)`),
		regexp.MustCompile(`(?i)(\d+\.?\d*\s*(?:billion|million|thousand))`),
	}

	headerRe = regexp.MustCompile(`(?m)^#+\s+`)
)

var (
	findingKeywords = []string{"growth", "increase", "decrease", "trend", "significant", "major", "key"}
	trendWords      = []string{"growing", "declining", "stable", "increasing", "decreasing", "rising", "falling"}
	recentWords     = []string{
		"recently", "latest", "new", "announced", "launched", "acquired",
		"merged", "partnership", "investment", "funding",
	}
)

// extractMetrics returns up to limit numeric tokens (with optional percent sign).
func extractMetrics(text string, limit int) []string {
	return metricRe.FindAllString(text, limit)
}

// sentences splits text on full stops and drops blank fragments.
func sentences(text string) []string {
	parts := strings.Split(text, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// extractKeyFindings returns sentences mentioning change or significance.
func extractKeyFindings(text string, limit int) []string {
	var out []string
	for _, s := range sentences(text) {
		if containsAny(strings.ToLower(s), findingKeywords) {
			out = append(out, s)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// extractTrendIndicators returns the trend words present in text, in a fixed order.
func extractTrendIndicators(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, w := range trendWords {
		if strings.Contains(lower, w) {
			out = append(out, w)
		}
	}
	return out
}

// summarize computes basic statistics over every number in text.
func summarize(text string) core.StatisticalSummary {
	var values []float64
	for _, m := range numberRe.FindAllString(text, -1) {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return core.StatisticalSummary{}
	}

	sum := 0.0
	minV, maxV := values[0], values[0]
	for _, v := range values {
		sum += v
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}

	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}

	return core.StatisticalSummary{
		Count:  len(values),
		Mean:   mean,
		Max:    maxV,
		Min:    minV,
		StdDev: math.Sqrt(variance / float64(len(values))),
	}
}

// extractStatistics finds monetary amounts, percentages and large numbers
// together with up to 50 characters of surrounding text on each side.
func extractStatistics(text string, limit int) []core.Statistic {
	var out []core.Statistic
	for _, re := range statisticRes {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			start := max(0, loc[0]-50)
			end := min(len(text), loc[1]+50)
			out = append(out, core.Statistic{
				Value:   text[loc[2]:loc[3]],
				Context: strings.ToValidUTF8(strings.TrimSpace(text[start:end]), ""),
			})
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// extractRecentDevelopments returns sentences announcing news, deals or funding.
func extractRecentDevelopments(text string, limit int) []string {
	var out []string
	for _, s := range sentences(text) {
		if len(s) <= 20 {
			continue
		}
		if containsAny(strings.ToLower(s), recentWords) {
			out = append(out, s)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// extractSection returns the lines following a markdown heading containing
// keyword, up to the next heading. A generic sentence is returned when the
// section is missing.
func extractSection(text, keyword string) string {
	keyword = strings.ToLower(keyword)

	var (
		content   []string
		inSection bool
	)

	for _, line := range strings.Split(text, "\n") {
		isHeading := strings.Contains(line, "**") || strings.Contains(line, "#")
		mentions := strings.Contains(strings.ToLower(line), keyword)

		switch {
		case isHeading && mentions:
			inSection = true
		case inSection && isHeading:
			return joinSection(content, keyword)
		case inSection:
			content = append(content, strings.TrimSpace(line))
		}
	}

	return joinSection(content, keyword)
}

func joinSection(lines []string, keyword string) string {
	if s := strings.TrimSpace(strings.Join(lines, "\n")); s != "" {
		return s
	}
	return "Information about " + keyword + " from comprehensive research analysis."
}

// readingMetrics describes a narrative text.
func readingMetrics(text string) core.ReadingMetrics {
	if text == "" {
		return core.ReadingMetrics{}
	}

	words := len(strings.Fields(text))

	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}

	return core.ReadingMetrics{
		WordCount:          words,
		ReadingTimeMinutes: max(1, words/200),
		ParagraphCount:     paragraphs,
		SectionCount:       len(headerRe.FindAllStringIndex(text, -1)),
		CharacterCount:     len(text),
		ReadabilityScore:   readability(text, words),
	}
}

// readability scores average sentence length; shorter sentences score higher.
func readability(text string, words int) float64 {
	n := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if n == 0 {
		return 0.5
	}

	avg := float64(words) / float64(n)

	switch {
	case avg < 15:
		return 0.9
	case avg < 20:
		return 0.7
	case avg < 25:
		return 0.5
	default:
		return 0.3
	}
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
