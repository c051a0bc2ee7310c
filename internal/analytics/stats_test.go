package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-search/internal/meeting"
	"meeting-search/internal/session"
)

func TestAggregator_Statistics(t *testing.T) {
	s := sessionWith(t, scenario()...)
	stats, err := NewAggregator(Options{EmbeddingModel: "nomic-embed-text"}).Statistics(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, 2, stats.TotalMeetings)
	assert.Equal(t, 1, stats.ContentTypes[meeting.ContentDecision])
	assert.Equal(t, 0, stats.ContentTypes[meeting.ContentTimeline])
	assert.Equal(t, 4, stats.EmbeddingDimension)
	assert.Equal(t, "nomic-embed-text", stats.EmbeddingModel)
	assert.Equal(t, []string{"A", "B", "C"}, stats.Participants)

	require.NotNil(t, stats.DateRange)
	assert.True(t, stats.DateRange.Earliest.Equal(day("2025-01-10")))
	assert.True(t, stats.DateRange.Latest.Equal(day("2025-02-01")))

	assert.Positive(t, stats.TokenStats.Min)
	assert.GreaterOrEqual(t, stats.TokenStats.Max, stats.TokenStats.Min)
	assert.NotEmpty(t, stats.TokenStats.Method)
}

func TestAggregator_StatisticsEmptySession(t *testing.T) {
	registry := session.NewRegistry(session.Options{})
	s, err := registry.GetOrCreate(context.Background(), "empty")
	require.NoError(t, err)

	stats, err := NewAggregator(Options{}).Statistics(context.Background(), s)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
	assert.Zero(t, stats.IndexSizeMB)
	assert.Zero(t, stats.EmbeddingDimension)
	assert.Nil(t, stats.DateRange)
	assert.NotNil(t, stats.Participants)
	assert.Equal(t, TokenStats{}, stats.TokenStats)
}

func TestComputeTokenStats(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   TokenStats
	}{
		{"empty", nil, TokenStats{}},
		{"single", []int{7}, TokenStats{Min: 7, Max: 7, Mean: 7, P95: 7}},
		{"unsorted", []int{3, 1, 2}, TokenStats{Min: 1, Max: 3, Mean: 2, P95: 3}},
		{
			name:   "twenty values",
			counts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 100},
			want:   TokenStats{Min: 1, Max: 100, Mean: 14.5, P95: 19},
		},
		{"mean rounds to two places", []int{1, 1, 2}, TokenStats{Min: 1, Max: 2, Mean: 1.33, P95: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeTokenStats(tt.counts))
		})
	}
}

func TestCountTokens(t *testing.T) {
	n, method := countTokens("approved budget increase")
	assert.Positive(t, n)
	assert.Contains(t, []string{methodTiktoken, methodEstimate}, method)
}
