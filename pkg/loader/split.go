package loader

import (
	"math"
	"math/rand"
	"sort"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Options controls how a dataset is partitioned.
type Options struct {
	Seed     int64
	Shuffle  bool
	Stratify string
	// TestSize is the share of the whole carved off as the validation+test pool.
	TestSize float64
	// ValSize is the share of the pool that becomes the validation set.
	ValSize float64
}

// DefaultOptions gives the 60/20/20 shuffled split with seed 42.
func DefaultOptions() Options {
	return Options{
		Seed:     42,
		Shuffle:  true,
		TestSize: 0.4,
		ValSize:  0.5,
	}
}

// TrainTestSplit partitions ds into train and test sets. The test set holds
// ceil(testSize*n) rows.
func TrainTestSplit(ds *data.Dataset, testSize float64, opts Options) (train, test *data.Dataset, err error) {
	trainPos, testPos, err := partition(ds, testSize, 1, opts)
	if err != nil {
		return nil, nil, err
	}
	return ds.Subset(trainPos), ds.Subset(testPos), nil
}

// TrainValTestSplit carves TestSize of ds off as a pool, then splits ValSize of the
// pool into the validation set and leaves the rest as the test set. When the pool
// does not divide evenly the test set gets the extra row. A stratified
// split stratifies both partitions, the second one on the pool's own labels.
func TrainValTestSplit(ds *data.Dataset, opts Options) (train, val, test *data.Dataset, err error) {
	if err = checkProportion("val size", opts.ValSize); err != nil {
		return nil, nil, nil, err
	}
	// every class must keep two rows in the pool to reach both val and test
	trainPos, poolPos, err := partition(ds, opts.TestSize, 2, opts)
	if err != nil {
		return nil, nil, nil, errors.Annotate(err, "split train")
	}
	pool := ds.Subset(poolPos)
	// validation keeps the leading side of the pool, test takes ceil((1-ValSize)*m)
	valPos, testPos, err := partition(pool, 1-opts.ValSize, 1, opts)
	if err != nil {
		return nil, nil, nil, errors.Annotate(err, "split validation")
	}
	return ds.Subset(trainPos), pool.Subset(valPos), pool.Subset(testPos), nil
}

// KFold splits ds into k folds and returns, for each fold, the remaining rows as
// train and the fold as test. Rows are permuted with seed before folding.
func KFold(ds *data.Dataset, k int, seed int64) (trains, tests []*data.Dataset, err error) {
	n := ds.Len()
	if k < 2 || k > n {
		return nil, nil, core.Invalidf("split: k=%d folds for %d rows", k, n)
	}
	indices := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([][]int, k)
	for i := range n {
		folds[i%k] = append(folds[i%k], indices[i])
	}
	for f := range folds {
		var rest []int
		for g := range folds {
			if g != f {
				rest = append(rest, folds[g]...)
			}
		}
		trains = append(trains, ds.Subset(rest))
		tests = append(tests, ds.Subset(folds[f]))
	}
	return trains, tests, nil
}

func checkProportion(name string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return core.Invalidf("split: %s %v must lie in (0,1)", name, v)
	}
	return nil
}

// partition returns train and test positions into ds. minTest is the number of
// rows every class must put on the test side when stratifying.
func partition(ds *data.Dataset, testSize float64, minTest int, opts Options) (trainPos, testPos []int, err error) {
	if err = checkProportion("test size", testSize); err != nil {
		return nil, nil, err
	}
	n := ds.Len()
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain <= 0 {
		return nil, nil, core.Invalidf("split: test size %v of %d rows leaves an empty subset", testSize, n)
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	if opts.Stratify != "" {
		if !opts.Shuffle {
			return nil, nil, core.Invalidf("split: stratify %q requires shuffle", opts.Stratify)
		}
		if _, err = ds.Schema().Field(opts.Stratify); err != nil {
			return nil, nil, core.Invalidf("split: stratify field %q does not exist", opts.Stratify)
		}
		codes, err := ds.Codes(opts.Stratify)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		return stratified(codes, nTest, minTest, rng)
	}

	if !opts.Shuffle {
		return lo.Range(nTrain), lo.RangeFrom(nTrain, nTest), nil
	}
	perm := rng.Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// stratified apportions nTest across classes by largest remainder, keeping at
// least minTest rows of every class in test and one in train.
func stratified(codes []int, nTest, minTest int, rng *rand.Rand) (trainPos, testPos []int, err error) {
	n := len(codes)
	groups := make(map[int][]int)
	for i, c := range codes {
		groups[c] = append(groups[c], i)
	}
	classes := lo.Keys(groups)
	sort.Ints(classes)

	low := make([]int, len(classes))
	high := make([]int, len(classes))
	quota := make([]float64, len(classes))
	alloc := make([]int, len(classes))
	sumLo, sumHi, total := 0, 0, 0
	for k, c := range classes {
		size := len(groups[c])
		if size < minTest+1 {
			return nil, nil, core.Invalidf("split: class %d has %d rows, need at least %d to stratify", c, size, minTest+1)
		}
		low[k], high[k] = minTest, size-1
		sumLo += low[k]
		sumHi += high[k]
		quota[k] = float64(nTest) * float64(size) / float64(n)
		alloc[k] = min(max(int(math.Floor(quota[k])), low[k]), high[k])
		total += alloc[k]
	}
	if nTest < sumLo || nTest > sumHi {
		return nil, nil, core.Invalidf("split: %d test rows cannot cover %d classes", nTest, len(classes))
	}
	for total != nTest {
		best := -1
		for k := range classes {
			gap := quota[k] - float64(alloc[k])
			if total < nTest && alloc[k] < high[k] && (best < 0 || gap > quota[best]-float64(alloc[best])) {
				best = k
			}
			if total > nTest && alloc[k] > low[k] && (best < 0 || gap < quota[best]-float64(alloc[best])) {
				best = k
			}
		}
		if total < nTest {
			alloc[best]++
			total++
		} else {
			alloc[best]--
			total--
		}
	}

	trainPos = make([]int, 0, n-nTest)
	testPos = make([]int, 0, nTest)
	for k, c := range classes {
		members := append([]int(nil), groups[c]...)
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		testPos = append(testPos, members[:alloc[k]]...)
		trainPos = append(trainPos, members[alloc[k]:]...)
	}
	rng.Shuffle(len(trainPos), func(i, j int) { trainPos[i], trainPos[j] = trainPos[j], trainPos[i] })
	rng.Shuffle(len(testPos), func(i, j int) { testPos[i], testPos[j] = testPos[j], testPos[i] })
	return trainPos, testPos, nil
}
