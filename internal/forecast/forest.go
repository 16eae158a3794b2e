package forecast

import (
	"fmt"
	"math/rand"
	"sort"
)

// ForestConfig bounds the ensemble capacity. A fixed seed makes training reproducible.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

// DefaultForestConfig returns 100 trees of depth 10 seeded with 42.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

// RandomForest averages regression trees grown on bootstrap resamples.
type RandomForest struct {
	cfg   ForestConfig
	trees []*treeNode
}

func NewRandomForest(cfg ForestConfig) *RandomForest {
	def := DefaultForestConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = def.MinSamplesSplit
	}
	return &RandomForest{cfg: cfg}
}

func (f *RandomForest) Name() string {
	return ModelForest
}

func (f *RandomForest) Fit(features [][]float64, target []float64) error {
	n := len(features)
	if n == 0 || len(target) != n {
		return fmt.Errorf("random forest: %w", errEmptyTrainingSet)
	}

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	f.trees = make([]*treeNode, 0, f.cfg.Trees)

	sample := make([]int, n)
	for t := 0; t < f.cfg.Trees; t++ {
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		b := treeBuilder{
			features: features,
			target:   target,
			maxDepth: f.cfg.MaxDepth,
			minSplit: f.cfg.MinSamplesSplit,
		}
		f.trees = append(f.trees, b.grow(append([]int(nil), sample...), 0))
	}

	return nil
}

func (f *RandomForest) Predict(features []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(features)
	}
	return sum / float64(len(f.trees))
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(features []float64) float64 {
	for !n.leaf {
		if features[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// treeBuilder grows a CART regression tree minimising squared error.
type treeBuilder struct {
	features [][]float64
	target   []float64
	maxDepth int
	minSplit int
}

func (b *treeBuilder) grow(idx []int, depth int) *treeNode {
	sum, sumSq := b.sums(idx)
	count := float64(len(idx))
	node := &treeNode{leaf: true, value: sum / count}

	parentSSE := sumSq - sum*sum/count
	if depth >= b.maxDepth || len(idx) < b.minSplit || parentSSE <= 1e-12 {
		return node
	}

	feature, threshold, ok := b.bestSplit(idx, parentSSE)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = b.grow(left, depth+1)
	node.right = b.grow(right, depth+1)
	return node
}

func (b *treeBuilder) bestSplit(idx []int, parentSSE float64) (int, float64, bool) {
	bestSSE := parentSSE
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, len(idx))
	for feature := range b.features[idx[0]] {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.features[sorted[i]][feature] < b.features[sorted[j]][feature]
		})

		totalSum, totalSq := b.sums(sorted)
		var leftSum, leftSq float64
		for k := 1; k < len(sorted); k++ {
			y := b.target[sorted[k-1]]
			leftSum += y
			leftSq += y * y

			lo := b.features[sorted[k-1]][feature]
			hi := b.features[sorted[k]][feature]
			if lo == hi {
				continue
			}

			nl := float64(k)
			nr := float64(len(sorted) - k)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)

			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = feature
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) sums(idx []int) (float64, float64) {
	var sum, sumSq float64
	for _, i := range idx {
		y := b.target[i]
		sum += y
		sumSq += y * y
	}
	return sum, sumSq
}
