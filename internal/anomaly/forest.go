package anomaly

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

const eulerGamma = 0.5772156649015329

// maxSubsample caps the per-tree sample size.
const maxSubsample = 256

// Forest is an isolation forest fit over a feature matrix. Fitting is
// fully deterministic for a given seed: the forest owns its RNG and
// never touches global random state.
type Forest struct {
	trees     []*treeNode
	subsample int
}

type treeNode struct {
	left         *treeNode
	right        *treeNode
	splitFeature int
	splitValue   float64
	size         int
}

// FitForest builds an isolation forest with the given number of trees
// over the feature matrix.
func FitForest(features [][]float64, estimators int, seed int64) (*Forest, error) {
	n := len(features)
	if n == 0 {
		return nil, errors.New("empty feature matrix")
	}
	dims := len(features[0])
	if dims == 0 {
		return nil, errors.New("feature matrix has no columns")
	}
	for _, row := range features {
		if len(row) != dims {
			return nil, errors.New("ragged feature matrix")
		}
	}
	if estimators <= 0 {
		return nil, errors.New("estimators must be positive")
	}

	subsample := n
	if subsample > maxSubsample {
		subsample = maxSubsample
	}
	depthLimit := int(math.Ceil(math.Log2(float64(subsample))))

	rng := rand.New(rand.NewSource(seed))
	trees := make([]*treeNode, estimators)
	for i := range trees {
		sample := rng.Perm(n)[:subsample]
		trees[i] = buildTree(features, sample, 0, depthLimit, rng)
	}

	return &Forest{trees: trees, subsample: subsample}, nil
}

func buildTree(x [][]float64, idx []int, depth, limit int, rng *rand.Rand) *treeNode {
	if depth >= limit || len(idx) <= 1 {
		return &treeNode{size: len(idx)}
	}

	// Only features with spread in this partition can be split on.
	dims := len(x[0])
	candidates := make([]int, 0, dims)
	for f := 0; f < dims; f++ {
		lo, hi := x[idx[0]][f], x[idx[0]][f]
		for _, i := range idx[1:] {
			v := x[i][f]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi > lo {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return &treeNode{size: len(idx)}
	}

	feature := candidates[rng.Intn(len(candidates))]
	lo, hi := x[idx[0]][feature], x[idx[0]][feature]
	for _, i := range idx[1:] {
		v := x[i][feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	split := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if x[i][feature] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{size: len(idx)}
	}

	return &treeNode{
		splitFeature: feature,
		splitValue:   split,
		left:         buildTree(x, left, depth+1, limit, rng),
		right:        buildTree(x, right, depth+1, limit, rng),
	}
}

func (t *treeNode) pathLength(point []float64) float64 {
	depth := 0.0
	node := t
	for node.left != nil {
		if point[node.splitFeature] < node.splitValue {
			node = node.left
		} else {
			node = node.right
		}
		depth++
	}
	if node.size > 1 {
		depth += averagePathLength(node.size)
	}
	return depth
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// BST search over n points.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	f := float64(n)
	return 2*(math.Log(f-1)+eulerGamma) - 2*(f-1)/f
}

// ScoreSamples returns the negated anomaly score for each point: values
// in (-1, 0), more negative meaning more anomalous.
func (f *Forest) ScoreSamples(features [][]float64) []float64 {
	denom := averagePathLength(f.subsample)
	scores := make([]float64, len(features))
	for i, point := range features {
		var total float64
		for _, tree := range f.trees {
			total += tree.pathLength(point)
		}
		mean := total / float64(len(f.trees))

		s := 0.5
		if denom > 0 {
			s = math.Exp2(-mean / denom)
		}
		scores[i] = -s
	}
	return scores
}

// ContaminationThreshold returns the score cutoff below which points are
// labeled outliers, as the linearly interpolated contamination percentile
// of the scores. Scores tied with the threshold are not outliers.
func ContaminationThreshold(scores []float64, contamination float64) float64 {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	rank := contamination * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
