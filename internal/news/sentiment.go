package news

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	positiveWords = []string{"beat", "beats", "surge", "soar", "rally", "gain", "up", "bull", "positive", "growth", "profit", "strong"}
	negativeWords = []string{"miss", "falls", "slump", "plunge", "down", "bear", "negative", "loss", "weak", "fraud", "scam", "lawsuit"}
)

// Score returns a naive sentiment in [-1, 1]: each listed word found anywhere
// in the lowercased text counts once, and the score is (pos-neg)/(pos+neg).
// Matching is by substring, so "update" counts as "up".
func Score(text string) float64 {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	if pos == 0 && neg == 0 {
		return 0
	}
	score := float64(pos-neg) / float64(max(pos+neg, 1))
	return min(1, max(-1, score))
}

// PlainText strips markup from article snippets before scoring.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ScoreParts joins the non-empty parts as plain text and scores them.
func ScoreParts(parts ...string) float64 {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = PlainText(p); p != "" {
			clean = append(clean, p)
		}
	}
	return Score(strings.Join(clean, " "))
}
