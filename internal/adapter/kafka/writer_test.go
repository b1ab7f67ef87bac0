package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/water-allocation-engine/internal/domain"
	"github.com/couchcryptid/water-allocation-engine/internal/engine"
)

func TestSerializeEntry(t *testing.T) {
	plan := &engine.Plan{
		Fingerprint:     "abc123",
		GeneratedAt:     time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC),
		EstimatorSource: "fallback",
	}
	entry := domain.Assessment{
		Settlement:     domain.Settlement{ID: "Ambegaon", Population: 3500},
		StressScore:    0.82,
		StressCategory: domain.StressCritical,
		Allocation:     domain.Allocation{ShortfallLiters: 120000, Vehicles: 12},
		PriorityScore:  0.74,
		Rank:           1,
	}

	msg, err := serializeEntry(plan, entry)
	require.NoError(t, err)

	assert.Equal(t, []byte("Ambegaon"), msg.Key)

	var decoded domain.Assessment
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Ambegaon", decoded.ID)
	assert.Equal(t, 1, decoded.Rank)
	assert.Equal(t, 12, decoded.Vehicles)
	assert.Equal(t, 0.82, decoded.StressScore)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "abc123", headers["plan_fingerprint"])
	assert.Equal(t, "fallback", headers["estimator_source"])
	assert.Equal(t, "2026-03-01T09:30:00Z", headers["generated_at"])
}
