package category

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a decision tree. Leaf nodes carry Feature == -1
// and a class; split nodes route on x[Feature] <= Threshold.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Class     int       `json:"c,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
}

// Forest is a seeded random forest over dense feature vectors. Majority
// vote with ties broken toward the lower class index keeps predictions
// deterministic.
type Forest struct {
	Trees      []*treeNode `json:"trees"`
	NumClasses int         `json:"num_classes"`
}

// ForestOptions tunes training. Zero values take the defaults.
type ForestOptions struct {
	Trees    int   // default 25
	MaxDepth int   // default 12
	MinLeaf  int   // default 1
	Seed     int64 // default 42
}

// TrainForest grows a bootstrap-aggregated ensemble of decision trees.
func TrainForest(x [][]float64, y []int, numClasses int, opts ForestOptions) *Forest {
	if opts.Trees == 0 {
		opts.Trees = 25
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = 12
	}
	if opts.MinLeaf == 0 {
		opts.MinLeaf = 1
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}

	n := len(x)
	dims := 0
	if n > 0 {
		dims = len(x[0])
	}
	// Classic sqrt(d) feature subsampling per split.
	featuresPerSplit := int(math.Sqrt(float64(dims)))
	if featuresPerSplit < 1 {
		featuresPerSplit = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	forest := &Forest{NumClasses: numClasses}
	for t := 0; t < opts.Trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		forest.Trees = append(forest.Trees, growTree(x, y, sample, numClasses, featuresPerSplit, opts.MaxDepth, opts.MinLeaf, rng))
	}
	return forest
}

func growTree(x [][]float64, y []int, idx []int, numClasses, featuresPerSplit, depth, minLeaf int, rng *rand.Rand) *treeNode {
	counts := classCounts(y, idx, numClasses)
	majority := argmaxCount(counts)

	if depth == 0 || len(idx) < 2*minLeaf || isPure(counts) {
		return &treeNode{Feature: -1, Class: majority}
	}

	dims := len(x[0])
	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	// Random feature subset, without replacement.
	perm := rng.Perm(dims)
	for _, f := range perm[:featuresPerSplit] {
		vals := make([]float64, 0, len(idx))
		for _, i := range idx {
			vals = append(vals, x[i][f])
		}
		sort.Float64s(vals)
		for v := 0; v+1 < len(vals); v++ {
			if vals[v] == vals[v+1] {
				continue
			}
			threshold := (vals[v] + vals[v+1]) / 2
			g := splitGini(x, y, idx, f, threshold, numClasses)
			if g < bestGini {
				bestGini, bestFeature, bestThreshold = g, f, threshold
			}
		}
	}

	if bestFeature < 0 {
		return &treeNode{Feature: -1, Class: majority}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < minLeaf || len(right) < minLeaf {
		return &treeNode{Feature: -1, Class: majority}
	}

	return &treeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      growTree(x, y, left, numClasses, featuresPerSplit, depth-1, minLeaf, rng),
		Right:     growTree(x, y, right, numClasses, featuresPerSplit, depth-1, minLeaf, rng),
	}
}

func splitGini(x [][]float64, y []int, idx []int, feature int, threshold float64, numClasses int) float64 {
	leftCounts := make([]int, numClasses)
	rightCounts := make([]int, numClasses)
	nl, nr := 0, 0
	for _, i := range idx {
		if x[i][feature] <= threshold {
			leftCounts[y[i]]++
			nl++
		} else {
			rightCounts[y[i]]++
			nr++
		}
	}
	total := float64(nl + nr)
	return float64(nl)/total*gini(leftCounts, nl) + float64(nr)/total*gini(rightCounts, nr)
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func classCounts(y []int, idx []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	return counts
}

func argmaxCount(counts []int) int {
	best, bestCount := 0, -1
	for c, n := range counts {
		if n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func isPure(counts []int) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

// Predict returns the majority-vote class for one vector.
func (f *Forest) Predict(x []float64) int {
	votes := make([]int, f.NumClasses)
	for _, tree := range f.Trees {
		votes[tree.predict(x)]++
	}
	return argmaxCount(votes)
}

func (n *treeNode) predict(x []float64) int {
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Class
}
