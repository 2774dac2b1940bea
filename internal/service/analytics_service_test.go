package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalearn/lumina-backend/internal/model"
)

func day(offset int) time.Time {
	base := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestStreakFromDays(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

	t.Run("NoActivity", func(t *testing.T) {
		assert.Equal(t, 0, streakFromDays(nil, now))
	})

	t.Run("ActiveToday", func(t *testing.T) {
		days := []time.Time{day(0), day(-1), day(-2)}
		assert.Equal(t, 3, streakFromDays(days, now))
	})

	t.Run("ActiveYesterdayStillAlive", func(t *testing.T) {
		days := []time.Time{day(-1), day(-2)}
		assert.Equal(t, 2, streakFromDays(days, now))
	})

	t.Run("GapBreaksStreak", func(t *testing.T) {
		days := []time.Time{day(0), day(-1), day(-3), day(-4)}
		assert.Equal(t, 2, streakFromDays(days, now))
	})

	t.Run("StaleActivity", func(t *testing.T) {
		days := []time.Time{day(-5), day(-6)}
		assert.Equal(t, 0, streakFromDays(days, now))
	})
}

func TestMasteryDistribution(t *testing.T) {
	scores := []model.QuizScore{
		{ScorePercentage: 95},
		{ScorePercentage: 90},
		{ScorePercentage: 75},
		{ScorePercentage: 55},
		{ScorePercentage: 20},
	}
	buckets := masteryDistribution(scores)
	require.Len(t, buckets, 4)
	assert.Equal(t, 2, buckets[0].Count) // 90-100
	assert.Equal(t, 1, buckets[1].Count) // 70-89
	assert.Equal(t, 1, buckets[2].Count) // 50-69
	assert.Equal(t, 1, buckets[3].Count) // <50
}

func TestActivityBreakdownMergesChatContexts(t *testing.T) {
	slices := activityBreakdown(4, map[string]int{
		"voice_qa":  3,
		"interview": 2,
		"":          1,
		"other":     1,
	})

	counts := make(map[string]int, len(slices))
	for _, s := range slices {
		counts[s.Activity] = s.Count
	}
	assert.Equal(t, 4, counts["quizzes"])
	assert.Equal(t, 3, counts["voice_qa"])
	assert.Equal(t, 2, counts["interview"])
	assert.Equal(t, 2, counts["chat"], "unknown contexts merge into chat")
}

func TestWeakAreasSurfacesLowAccuracyTopics(t *testing.T) {
	results := []model.QuestionResult{
		{Topic: "algebra", IsCorrect: false},
		{Topic: "algebra", IsCorrect: false},
		{Topic: "algebra", IsCorrect: true},
		{Topic: "geometry", IsCorrect: true},
		{Topic: "geometry", IsCorrect: true},
		{Topic: "", IsCorrect: false},
	}
	data, err := json.Marshal(results)
	require.NoError(t, err)

	areas := weakAreas([]model.QuizScore{{ID: 1, AnswersData: data}})
	require.Len(t, areas, 2)

	// Weakest first.
	assert.Equal(t, "general", areas[0].Topic)
	assert.Equal(t, 0.0, areas[0].Accuracy)
	assert.Equal(t, "algebra", areas[1].Topic)
	assert.Equal(t, 33.3, areas[1].Accuracy)
}

func TestWeakAreasSkipsMalformedData(t *testing.T) {
	areas := weakAreas([]model.QuizScore{
		{ID: 1, AnswersData: json.RawMessage(`not json`)},
		{ID: 2},
	})
	assert.Empty(t, areas)
}

func TestRecentActivityCapped(t *testing.T) {
	scores := make([]model.QuizScore, recentFeedLimit+5)
	for i := range scores {
		scores[i] = model.QuizScore{QuizTitle: "Quiz", ScorePercentage: 80, CreatedAt: day(0)}
	}
	feed := recentActivity(scores)
	assert.Len(t, feed, recentFeedLimit)
}
