// Command hlldemo sweeps a set of true cardinalities and prints how close
// HLL-Classic's composite estimator gets to each one.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/criteo/vertica-hyperloglog/config"
)

func main() {
	cardinalities := []int{1000, 10000, 100000, 1000000, 10000000}
	rng := rand.New(rand.NewSource(1))

	settings := config.Default()

	for _, trueCardinality := range cardinalities {
		settings.PrecisionBits = precisionForCardinality(trueCardinality)

		sketch, err := config.NewClassicSketch(settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating sketch: %v\n", err)
			os.Exit(1)
		}
		sketch.Reset()

		for i := 0; i < trueCardinality; i++ {
			sketch.Add(rng.Uint64())
		}

		estimated := sketch.ApproximateCountDistinct()
		relativeError := math.Abs(float64(trueCardinality)-float64(estimated)) / float64(trueCardinality) * 100

		format, err := settings.ClassicFormat()
		if err != nil {
			fmt.Fprintf(os.Stderr, "resolving format: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("precision=%d format=%s true=%d estimated=%d error=%.2f%%\n",
			settings.PrecisionBits, format, trueCardinality, estimated, relativeError)
	}
}

// precisionForCardinality picks a register-count budget proportional to
// the expected scale: more buckets for larger streams, trading memory for
// accuracy only where the stream size justifies it.
func precisionForCardinality(cardinality int) uint8 {
	switch {
	case cardinality <= 10000:
		return 12
	case cardinality <= 1000000:
		return 13
	default:
		return 14
	}
}
