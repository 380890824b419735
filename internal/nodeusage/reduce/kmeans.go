package reduce

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/nodeusage/nodeusage/internal/common/linalg"
	"github.com/nodeusage/nodeusage/internal/common/slices"
	"github.com/nodeusage/nodeusage/internal/common/usageerrors"
)

type KMeansOptions struct {
	// Number of clusters.
	Clusters int
	// Seed of the random source used for centroid initialisation.
	// Runs with equal seeds and inputs produce identical results.
	Seed int64
	// Number of independent initialisations; the one with the lowest inertia is kept.
	Restarts int
	// Upper bound on Lloyd iterations per restart.
	MaxIterations int
	// Convergence threshold on the total squared centroid shift, relative to the mean per-column variance of the data.
	Tolerance float64
}

func DefaultKMeansOptions() KMeansOptions {
	return KMeansOptions{
		Clusters:      3,
		Seed:          42,
		Restarts:      10,
		MaxIterations: 300,
		Tolerance:     1e-4,
	}
}

func (o KMeansOptions) Validate() error {
	if o.Clusters < 1 {
		return errors.WithStack(&usageerrors.ErrInvalidArgument{Name: "clusters", Value: o.Clusters, Message: "must be positive"})
	}
	if o.Restarts < 1 {
		return errors.WithStack(&usageerrors.ErrInvalidArgument{Name: "restarts", Value: o.Restarts, Message: "must be positive"})
	}
	if o.MaxIterations < 1 {
		return errors.WithStack(&usageerrors.ErrInvalidArgument{Name: "maxIterations", Value: o.MaxIterations, Message: "must be positive"})
	}
	if o.Tolerance < 0 {
		return errors.WithStack(&usageerrors.ErrInvalidArgument{Name: "tolerance", Value: o.Tolerance, Message: "must not be negative"})
	}
	return nil
}

type KMeansResult struct {
	// Cluster index of each row, in [0, Clusters).
	Labels []int
	// One centroid per row.
	Centroids *mat.Dense
	// Sum of squared distances from each row to its centroid.
	Inertia float64
	// Lloyd iterations used by the winning restart.
	Iterations int
	// Index of the winning restart.
	Restart int
}

// Sizes returns the number of rows in each cluster.
func (r *KMeansResult) Sizes() []int {
	k, _ := r.Centroids.Dims()
	rv := make([]int, k)
	for _, l := range r.Labels {
		rv[l]++
	}
	return rv
}

// KMeans partitions the rows of x into opts.Clusters clusters using k-means++ initialisation followed by
// Lloyd iterations. Points equidistant from several centroids go to the lowest-indexed one.
// A cluster that becomes empty is re-seeded with the point furthest from its centroid.
func KMeans(x mat.Matrix, opts KMeansOptions) (*KMeansResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	if n < opts.Clusters {
		return nil, errors.WithStack(&usageerrors.ErrInvalidArgument{
			Name:    "rows",
			Value:   n,
			Message: "fewer rows than clusters",
		})
	}

	points := make([][]float64, n)
	for i := range points {
		points[i] = mat.Row(nil, i, x)
	}
	tol := opts.Tolerance * meanColumnVariance(x)

	rng := rand.New(rand.NewSource(opts.Seed))
	var best *KMeansResult
	for restart := 0; restart < opts.Restarts; restart++ {
		centroids := seedCentroids(points, opts.Clusters, rng)
		result := lloyd(points, centroids, opts.MaxIterations, tol)
		result.Restart = restart
		if best == nil || result.Inertia < best.Inertia {
			best = result
		}
	}
	return best, nil
}

func meanColumnVariance(x mat.Matrix) float64 {
	n, c := x.Dims()
	if n < 2 {
		return 0
	}
	col := make([]float64, n)
	var sum float64
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		_, variance := stat.PopMeanVariance(col, nil)
		sum += variance
	}
	return sum / float64(c)
}

// seedCentroids picks k initial centroids with greedy k-means++: each new centroid is the best of several
// candidates sampled proportionally to their squared distance from the centroids chosen so far.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	trials := 2 + int(math.Log(float64(k)))

	first := rng.Intn(n)
	centroids := [][]float64{clone(points[first])}
	closest := make([]float64, n)
	var potential float64
	for i, p := range points {
		closest[i] = linalg.SquaredDistance(p, points[first])
		potential += closest[i]
	}

	for len(centroids) < k {
		bestCandidate := -1
		var bestPotential float64
		var bestClosest []float64
		for t := 0; t < trials; t++ {
			candidate := sampleProportional(closest, potential, rng)
			candidateClosest := make([]float64, n)
			var candidatePotential float64
			for i, p := range points {
				candidateClosest[i] = math.Min(closest[i], linalg.SquaredDistance(p, points[candidate]))
				candidatePotential += candidateClosest[i]
			}
			if bestCandidate < 0 || candidatePotential < bestPotential {
				bestCandidate = candidate
				bestPotential = candidatePotential
				bestClosest = candidateClosest
			}
		}
		centroids = append(centroids, clone(points[bestCandidate]))
		closest = bestClosest
		potential = bestPotential
	}
	return centroids
}

// sampleProportional returns index i with probability weights[i]/total.
// If every weight is zero the index is drawn uniformly.
func sampleProportional(weights []float64, total float64, rng *rand.Rand) int {
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	target := rng.Float64() * total
	var cumulative float64
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if target < cumulative {
			return i
		}
	}
	// Rounding left target just above the cumulative sum.
	return last
}

func lloyd(points [][]float64, centroids [][]float64, maxIterations int, tol float64) *KMeansResult {
	k := len(centroids)
	labels := slices.Fill(-1, len(points))
	distances := make([]float64, k)

	iterations := 0
	for iterations < maxIterations {
		iterations++
		changed := assignLabels(points, centroids, labels, distances)
		if !changed {
			break
		}
		updated := updateCentroids(points, labels, centroids)
		var shift float64
		for j := range centroids {
			shift += linalg.SquaredDistance(centroids[j], updated[j])
		}
		centroids = updated
		if shift <= tol {
			assignLabels(points, centroids, labels, distances)
			break
		}
	}
	if iterations == maxIterations {
		assignLabels(points, centroids, labels, distances)
	}

	var inertia float64
	for i, p := range points {
		inertia += linalg.SquaredDistance(p, centroids[labels[i]])
	}
	flat := make([]float64, 0, k*len(centroids[0]))
	for _, c := range centroids {
		flat = append(flat, c...)
	}
	return &KMeansResult{
		Labels:     labels,
		Centroids:  mat.NewDense(k, len(centroids[0]), flat),
		Inertia:    inertia,
		Iterations: iterations,
	}
}

// assignLabels moves every point to its nearest centroid and reports whether any label changed.
func assignLabels(points, centroids [][]float64, labels []int, distances []float64) bool {
	changed := false
	for i, p := range points {
		for j, c := range centroids {
			distances[j] = linalg.SquaredDistance(p, c)
		}
		nearest := slices.ArgMin(distances)
		if labels[i] != nearest {
			labels[i] = nearest
			changed = true
		}
	}
	return changed
}

// updateCentroids returns the mean of each cluster. Empty clusters take the point furthest from its current
// centroid; a point is used for at most one empty cluster.
func updateCentroids(points [][]float64, labels []int, centroids [][]float64) [][]float64 {
	k := len(centroids)
	d := len(points[0])
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, d)
	}
	counts := make([]int, k)
	for i, p := range points {
		l := labels[i]
		counts[l]++
		for m, v := range p {
			sums[l][m] += v
		}
	}

	used := make(map[int]bool)
	for j := range sums {
		if counts[j] > 0 {
			for m := range sums[j] {
				sums[j][m] /= float64(counts[j])
			}
			continue
		}
		furthest := -1
		var furthestDistance float64
		for i, p := range points {
			if used[i] {
				continue
			}
			dist := linalg.SquaredDistance(p, centroids[labels[i]])
			if furthest < 0 || dist > furthestDistance {
				furthest = i
				furthestDistance = dist
			}
		}
		if furthest >= 0 {
			used[furthest] = true
			copy(sums[j], points[furthest])
		} else {
			copy(sums[j], centroids[j])
		}
	}
	return sums
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
