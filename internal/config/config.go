package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// weightTolerance is how far the two priority weights may drift from summing
// to exactly 1 before the configuration is rejected.
const weightTolerance = 1e-6

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset and model artifacts.
	DatasetFile     string
	DatasetInterval time.Duration // 0 disables periodic reloads
	ModelFile       string
	ScalerFile      string
	FallbackSeed    int64
	FallbackSamples int

	// Allocation policy.
	PerCapitaDailyLiters  float64
	HorizonDays           int
	VehicleCapacityLiters float64

	// Priority weights; must sum to 1 within tolerance.
	StressWeight     float64
	PopulationWeight float64

	// Stress category thresholds, strictly ascending within (0,1).
	StressLowThreshold      float64
	StressModerateThreshold float64
	StressHighThreshold     float64

	// Routing.
	RouteTopN int
	DepotLat  *float64
	DepotLon  *float64

	PlanCacheSize int

	// Optional plan publishing.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaPlanTopic string

	// Optional plan history store.
	PostgresEnabled bool
	PostgresDSN     string
}

// Load reads configuration from environment variables, applying defaults
// where unset. Invalid policy values (weights not summing to 1, non-positive
// capacity) are fatal here, before any per-row work begins.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	datasetInterval, err := parseDuration("DATASET_REFRESH_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}

	fallbackSeed, err := parseInt64("FALLBACK_SEED", 42)
	if err != nil {
		return nil, err
	}
	fallbackSamples, err := parseInt("FALLBACK_SAMPLES", 256)
	if err != nil {
		return nil, err
	}

	perCapita, err := parseFloat("PER_CAPITA_DAILY_NEED", 50)
	if err != nil {
		return nil, err
	}
	horizonDays, err := parseInt("SUPPLY_HORIZON_DAYS", 365)
	if err != nil {
		return nil, err
	}
	capacity, err := parseFloat("TANKER_CAPACITY", 10000)
	if err != nil {
		return nil, err
	}

	stressWeight, err := parseFloat("STRESS_WEIGHT", 0.7)
	if err != nil {
		return nil, err
	}
	populationWeight, err := parseFloat("POPULATION_WEIGHT", 0.3)
	if err != nil {
		return nil, err
	}

	lowTh, err := parseFloat("STRESS_LOW_THRESHOLD", 0.3)
	if err != nil {
		return nil, err
	}
	moderateTh, err := parseFloat("STRESS_MODERATE_THRESHOLD", 0.5)
	if err != nil {
		return nil, err
	}
	highTh, err := parseFloat("STRESS_HIGH_THRESHOLD", 0.7)
	if err != nil {
		return nil, err
	}

	routeTopN, err := parseInt("ROUTE_TOP_N", 5)
	if err != nil {
		return nil, err
	}
	depotLat, err := parseOptionalFloat("DEPOT_LAT")
	if err != nil {
		return nil, err
	}
	depotLon, err := parseOptionalFloat("DEPOT_LON")
	if err != nil {
		return nil, err
	}

	planCacheSize, err := parseInt("PLAN_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetFile:     envOrDefault("DATASET_FILE", "dataset.csv"),
		DatasetInterval: datasetInterval,
		ModelFile:       envOrDefault("MODEL_FILE", "model.json"),
		ScalerFile:      envOrDefault("SCALER_FILE", "scaler.json"),
		FallbackSeed:    fallbackSeed,
		FallbackSamples: fallbackSamples,

		PerCapitaDailyLiters:  perCapita,
		HorizonDays:           horizonDays,
		VehicleCapacityLiters: capacity,

		StressWeight:     stressWeight,
		PopulationWeight: populationWeight,

		StressLowThreshold:      lowTh,
		StressModerateThreshold: moderateTh,
		StressHighThreshold:     highTh,

		RouteTopN: routeTopN,
		DepotLat:  depotLat,
		DepotLon:  depotLon,

		PlanCacheSize: planCacheSize,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPlanTopic: envOrDefault("KAFKA_PLAN_TOPIC", "allocation-plans"),

		PostgresEnabled: os.Getenv("POSTGRES_ENABLED") == "true",
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if c.PerCapitaDailyLiters <= 0 {
		return fmt.Errorf("PER_CAPITA_DAILY_NEED must be positive, got %g", c.PerCapitaDailyLiters)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("SUPPLY_HORIZON_DAYS must be positive, got %d", c.HorizonDays)
	}
	if c.VehicleCapacityLiters <= 0 {
		return fmt.Errorf("TANKER_CAPACITY must be positive, got %g", c.VehicleCapacityLiters)
	}
	if c.StressWeight < 0 || c.PopulationWeight < 0 {
		return fmt.Errorf("priority weights must be non-negative, got %g/%g", c.StressWeight, c.PopulationWeight)
	}
	if sum := c.StressWeight + c.PopulationWeight; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("STRESS_WEIGHT and POPULATION_WEIGHT must sum to 1, got %g", sum)
	}
	if !(0 < c.StressLowThreshold &&
		c.StressLowThreshold < c.StressModerateThreshold &&
		c.StressModerateThreshold < c.StressHighThreshold &&
		c.StressHighThreshold < 1) {
		return fmt.Errorf("stress thresholds must be strictly ascending within (0,1), got %g/%g/%g",
			c.StressLowThreshold, c.StressModerateThreshold, c.StressHighThreshold)
	}
	if c.RouteTopN < 0 {
		return fmt.Errorf("ROUTE_TOP_N must be non-negative, got %d", c.RouteTopN)
	}
	if (c.DepotLat == nil) != (c.DepotLon == nil) {
		return errors.New("DEPOT_LAT and DEPOT_LON must be set together")
	}
	if c.DepotLat != nil && (*c.DepotLat < -90 || *c.DepotLat > 90) {
		return fmt.Errorf("DEPOT_LAT out of range: %g", *c.DepotLat)
	}
	if c.DepotLon != nil && (*c.DepotLon < -180 || *c.DepotLon > 180) {
		return fmt.Errorf("DEPOT_LON out of range: %g", *c.DepotLon)
	}
	if c.PlanCacheSize <= 0 {
		return fmt.Errorf("PLAN_CACHE_SIZE must be positive, got %d", c.PlanCacheSize)
	}
	if c.FallbackSamples <= 0 {
		return fmt.Errorf("FALLBACK_SAMPLES must be positive, got %d", c.FallbackSamples)
	}
	if c.DatasetFile == "" {
		return errors.New("DATASET_FILE is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if c.KafkaEnabled && c.KafkaPlanTopic == "" {
		return errors.New("KAFKA_ENABLED is true but KAFKA_PLAN_TOPIC is empty")
	}
	if c.PostgresEnabled && c.PostgresDSN == "" {
		return errors.New("POSTGRES_ENABLED is true but POSTGRES_DSN is not set")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseInt64(key string, fallback int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseOptionalFloat(key string) (*float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("invalid %s: %q", key, s)
	}
	return &v, nil
}
