// Command genmock generates a deterministic mock settlement dataset CSV for
// the allocation engine test suites and local development. Values are drawn
// from the same ranges the fallback estimator samples, so mock plans exercise
// the full stress spectrum.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/settlements.csv -count 40 -seed 7
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

// Sampling ranges for the synthetic settlement table. Coordinates cover a
// single contiguous service region so routes stay plausible.
var (
	rainfallCurrentRange = [2]float64{100, 800}
	rainfallAverageRange = [2]float64{600, 800}
	groundwaterRange     = [2]float64{150, 220}
	populationRange      = [2]int{2000, 7000}
	storageCapacityRange = [2]float64{50_000, 300_000}
	latitudeRange        = [2]float64{15.0, 22.0}
	longitudeRange       = [2]float64{73.0, 80.0}
)

var header = []string{
	"village_name",
	"population",
	"rainfall_current",
	"rainfall_average",
	"groundwater_depth",
	"historical_groundwater",
	"storage_capacity",
	"current_storage",
	"latitude",
	"longitude",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the settlement CSV")
	count := flag.Int("count", 40, "number of settlements to generate")
	seed := flag.Int64("seed", 7, "PRNG seed; same seed, same dataset")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *count < 1 {
		return fmt.Errorf("-count must be positive, got %d", *count)
	}

	rows := generate(*seed, *count)

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Printf("wrote %d settlements to %s (seed %d)", len(rows), *out, *seed)
	return nil
}

func generate(seed int64, count int) [][]string {
	rng := rand.New(rand.NewSource(seed))

	rows := make([][]string, 0, count)
	for i := 0; i < count; i++ {
		capacity := uniform(rng, storageCapacityRange)
		depth := uniform(rng, groundwaterRange)

		// Historical depth sits within ±15 m of current so the derived trend
		// takes both signs across the dataset.
		historical := depth + (rng.Float64()*30 - 15)
		if historical < 0 {
			historical = 0
		}

		rows = append(rows, []string{
			fmt.Sprintf("Village-%03d", i+1),
			strconv.Itoa(populationRange[0] + rng.Intn(populationRange[1]-populationRange[0]+1)),
			formatFloat(uniform(rng, rainfallCurrentRange)),
			formatFloat(uniform(rng, rainfallAverageRange)),
			formatFloat(depth),
			formatFloat(historical),
			formatFloat(capacity),
			formatFloat(capacity * rng.Float64()),
			formatFloat(uniform(rng, latitudeRange)),
			formatFloat(uniform(rng, longitudeRange)),
		})
	}
	return rows
}

func uniform(rng *rand.Rand, bounds [2]float64) float64 {
	return bounds[0] + rng.Float64()*(bounds[1]-bounds[0])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
