package plagiarism

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StructuralSimilarity compares size metrics and node-kind histograms.
// Every metric and kind present on either side contributes
// 1 - |v1-v2| / max(v1, v2); pairs that are zero on both sides are skipped.
// The result is the mean contribution, or 0 when nothing was comparable.
func StructuralSimilarity(a, b SourceFeatures) float64 {
	sims := make([]float64, 0, 3+len(a.NodeHistogram)+len(b.NodeHistogram))

	for _, pair := range [][2]int{
		{a.LineCount, b.LineCount},
		{a.CharCount, b.CharCount},
		{a.WordCount, b.WordCount},
	} {
		if s, ok := ratioSimilarity(pair[0], pair[1]); ok {
			sims = append(sims, s)
		}
	}

	for _, kind := range unionKinds(a.NodeHistogram, b.NodeHistogram) {
		if s, ok := ratioSimilarity(a.NodeHistogram[kind], b.NodeHistogram[kind]); ok {
			sims = append(sims, s)
		}
	}

	if len(sims) == 0 {
		return 0
	}
	return stat.Mean(sims, nil)
}

func ratioSimilarity(v1, v2 int) (float64, bool) {
	if v1 == 0 && v2 == 0 {
		return 0, false
	}
	hi := math.Max(float64(v1), float64(v2))
	return 1 - math.Abs(float64(v1-v2))/hi, true
}

// unionKinds returns the sorted keys of both histograms.
func unionKinds(a, b map[string]int) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	kinds := make([]string, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
