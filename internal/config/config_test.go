package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "dataset.csv", cfg.DatasetFile)
	assert.Equal(t, time.Duration(0), cfg.DatasetInterval)
	assert.Equal(t, "model.json", cfg.ModelFile)
	assert.Equal(t, "scaler.json", cfg.ScalerFile)
	assert.Equal(t, int64(42), cfg.FallbackSeed)
	assert.Equal(t, 256, cfg.FallbackSamples)

	assert.Equal(t, 50.0, cfg.PerCapitaDailyLiters)
	assert.Equal(t, 365, cfg.HorizonDays)
	assert.Equal(t, 10000.0, cfg.VehicleCapacityLiters)
	assert.Equal(t, 0.7, cfg.StressWeight)
	assert.Equal(t, 0.3, cfg.PopulationWeight)
	assert.Equal(t, 0.3, cfg.StressLowThreshold)
	assert.Equal(t, 0.5, cfg.StressModerateThreshold)
	assert.Equal(t, 0.7, cfg.StressHighThreshold)

	assert.Equal(t, 5, cfg.RouteTopN)
	assert.Nil(t, cfg.DepotLat)
	assert.Nil(t, cfg.DepotLon)
	assert.Equal(t, 16, cfg.PlanCacheSize)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "allocation-plans", cfg.KafkaPlanTopic)
	assert.False(t, cfg.PostgresEnabled)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("PER_CAPITA_DAILY_NEED", "40")
	t.Setenv("SUPPLY_HORIZON_DAYS", "180")
	t.Setenv("TANKER_CAPACITY", "12000")
	t.Setenv("STRESS_WEIGHT", "0.6")
	t.Setenv("POPULATION_WEIGHT", "0.4")
	t.Setenv("ROUTE_TOP_N", "10")
	t.Setenv("DEPOT_LAT", "18.52")
	t.Setenv("DEPOT_LON", "73.85")
	t.Setenv("DATASET_REFRESH_INTERVAL", "5m")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 40.0, cfg.PerCapitaDailyLiters)
	assert.Equal(t, 180, cfg.HorizonDays)
	assert.Equal(t, 12000.0, cfg.VehicleCapacityLiters)
	assert.Equal(t, 0.6, cfg.StressWeight)
	assert.Equal(t, 0.4, cfg.PopulationWeight)
	assert.Equal(t, 10, cfg.RouteTopN)
	require.NotNil(t, cfg.DepotLat)
	assert.Equal(t, 18.52, *cfg.DepotLat)
	require.NotNil(t, cfg.DepotLon)
	assert.Equal(t, 73.85, *cfg.DepotLon)
	assert.Equal(t, 5*time.Minute, cfg.DatasetInterval)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "weights must sum to one",
			env:  map[string]string{"STRESS_WEIGHT": "0.8", "POPULATION_WEIGHT": "0.3"},
			want: "sum to 1",
		},
		{
			name: "negative weight",
			env:  map[string]string{"STRESS_WEIGHT": "1.3", "POPULATION_WEIGHT": "-0.3"},
			want: "non-negative",
		},
		{
			name: "zero tanker capacity",
			env:  map[string]string{"TANKER_CAPACITY": "0"},
			want: "TANKER_CAPACITY",
		},
		{
			name: "negative per-capita need",
			env:  map[string]string{"PER_CAPITA_DAILY_NEED": "-1"},
			want: "PER_CAPITA_DAILY_NEED",
		},
		{
			name: "zero horizon",
			env:  map[string]string{"SUPPLY_HORIZON_DAYS": "0"},
			want: "SUPPLY_HORIZON_DAYS",
		},
		{
			name: "thresholds not ascending",
			env:  map[string]string{"STRESS_LOW_THRESHOLD": "0.6", "STRESS_MODERATE_THRESHOLD": "0.5"},
			want: "ascending",
		},
		{
			name: "depot latitude without longitude",
			env:  map[string]string{"DEPOT_LAT": "18.52"},
			want: "DEPOT_LAT and DEPOT_LON",
		},
		{
			name: "depot latitude out of range",
			env:  map[string]string{"DEPOT_LAT": "95", "DEPOT_LON": "73.85"},
			want: "DEPOT_LAT out of range",
		},
		{
			name: "negative route top n",
			env:  map[string]string{"ROUTE_TOP_N": "-1"},
			want: "ROUTE_TOP_N",
		},
		{
			name: "unparseable float",
			env:  map[string]string{"TANKER_CAPACITY": "lots"},
			want: "TANKER_CAPACITY",
		},
		{
			name: "unparseable duration",
			env:  map[string]string{"SHUTDOWN_TIMEOUT": "soon"},
			want: "SHUTDOWN_TIMEOUT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWeightToleranceAccepted(t *testing.T) {
	// Float noise within tolerance must not reject an intended 1.0 sum.
	t.Setenv("STRESS_WEIGHT", "0.7000000001")
	t.Setenv("POPULATION_WEIGHT", "0.3")

	_, err := Load()
	assert.NoError(t, err)
}
