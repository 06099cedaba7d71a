// Package digest condenses log text into recurring line patterns without
// calling a model.
package digest

import (
	"context"
	"sort"
	"strings"

	"github.com/ricardonunez-io/loganalyser/internal/model"
)

const (
	DefaultSimilarityThreshold = 0.85
	DefaultMaxPatterns         = 20
	maxSamplesPerPattern       = 3

	// Only the first maxMergeTemplates distinct templates, each at most
	// maxMergeRunes long, take part in similarity merging. Later or longer
	// templates are still grouped by exact match.
	maxMergeTemplates = 500
	maxMergeRunes     = 512
)

type Pattern struct {
	Template string   `json:"template"`
	Level    Level    `json:"level"`
	Count    int      `json:"count"`
	Samples  []string `json:"samples"`
}

type Summary struct {
	Lines    int           `json:"lines"`
	Levels   map[Level]int `json:"levels"`
	Patterns []Pattern     `json:"patterns"`
	Omitted  int           `json:"omitted,omitempty"`
}

type Options struct {
	// MinLevel drops lines below the given level. Blank or "All" keeps every
	// line.
	MinLevel    string
	Threshold   float64
	MaxPatterns int
}

// Summarize returns early with ctx's error when ctx is done while merging.
func Summarize(ctx context.Context, logText string, opts Options) (Summary, error) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultSimilarityThreshold
	}
	if opts.MaxPatterns <= 0 {
		opts.MaxPatterns = DefaultMaxPatterns
	}
	floor := LevelUnknown
	if model.IsSet(opts.MinLevel) {
		if l, ok := ParseLevel(opts.MinLevel); ok {
			floor = l
		}
	}

	summary := Summary{Levels: make(map[Level]int)}
	byTemplate := make(map[string]*Pattern)
	var order []*Pattern

	for _, line := range strings.Split(logText, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		level := DetectLevel(line)
		if !level.AtLeast(floor) {
			continue
		}
		summary.Lines++
		summary.Levels[level]++

		tpl := Normalize(line)
		key := string(level) + "\x00" + tpl
		if p, ok := byTemplate[key]; ok {
			p.add(1, line)
			continue
		}
		p := &Pattern{Template: tpl, Level: level, Count: 1, Samples: []string{line}}
		byTemplate[key] = p
		order = append(order, p)
	}

	merged, err := mergeSimilar(ctx, order, opts.Threshold)
	if err != nil {
		return Summary{}, err
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if rank[merged[i].Level] != rank[merged[j].Level] {
			return rank[merged[i].Level] > rank[merged[j].Level]
		}
		return merged[i].Count > merged[j].Count
	})
	if len(merged) > opts.MaxPatterns {
		summary.Omitted = len(merged) - opts.MaxPatterns
		merged = merged[:opts.MaxPatterns]
	}
	summary.Patterns = merged
	return summary, nil
}

func (p *Pattern) add(count int, samples ...string) {
	p.Count += count
	for _, s := range samples {
		if len(p.Samples) < maxSamplesPerPattern {
			p.Samples = append(p.Samples, s)
		}
	}
}

// mergeSimilar folds templates of the same level whose similarity reaches
// threshold into the earliest one seen.
func mergeSimilar(ctx context.Context, patterns []*Pattern, threshold float64) ([]Pattern, error) {
	runes := make([][]rune, len(patterns))
	for i, p := range patterns {
		if i < maxMergeTemplates {
			runes[i] = []rune(p.Template)
		}
	}
	mergeable := func(i int) bool {
		return i < maxMergeTemplates && len(runes[i]) <= maxMergeRunes
	}

	absorbed := make([]bool, len(patterns))
	for i := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if absorbed[i] || !mergeable(i) {
			continue
		}
		for j := i + 1; j < len(patterns) && j < maxMergeTemplates; j++ {
			if absorbed[j] || !mergeable(j) || patterns[i].Level != patterns[j].Level {
				continue
			}
			if similar(runes[i], runes[j], threshold) {
				patterns[i].add(patterns[j].Count, patterns[j].Samples...)
				absorbed[j] = true
			}
		}
	}

	result := make([]Pattern, 0, len(patterns))
	for i, p := range patterns {
		if !absorbed[i] {
			result = append(result, *p)
		}
	}
	return result, nil
}

// similar reports whether 1 - distance/maxLen reaches threshold.
func similar(a, b []rune, threshold float64) bool {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return true
	}
	k := int((1 - threshold) * float64(maxLen))
	return boundedLevenshtein(a, b, k) <= k
}

func levenshtein(a, b []rune) int {
	return boundedLevenshtein(a, b, max(len(a), len(b)))
}

// boundedLevenshtein returns the edit distance between a and b, or k+1 once
// it is known to exceed k. Only cells within k of the diagonal are computed.
func boundedLevenshtein(a, b []rune, k int) int {
	over := k + 1
	if len(a)-len(b) > k || len(b)-len(a) > k {
		return over
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = min(j, over)
	}
	for i := 1; i <= len(a); i++ {
		lo, hi := max(1, i-k), min(len(b), i+k)
		if lo == 1 {
			curr[0] = min(i, over)
		} else {
			curr[lo-1] = over
		}
		rowMin := curr[lo-1]
		for j := lo; j <= hi; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost, over)
			rowMin = min(rowMin, curr[j])
		}
		if hi < len(b) {
			curr[hi+1] = over
		}
		if rowMin > k {
			return over
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
