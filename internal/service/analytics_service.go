package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/repository"
)

const (
	recentScoreWindow = 50
	weakAreaThreshold = 70.0
	recentFeedLimit   = 10
)

// AnalyticsService aggregates the learner dashboard.
type AnalyticsService struct {
	analyticsRepo *repository.AnalyticsRepository
	scoreRepo     *repository.QuizScoreRepository
	chatRepo      *repository.ChatRepository
	now           func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(analyticsRepo *repository.AnalyticsRepository, scoreRepo *repository.QuizScoreRepository, chatRepo *repository.ChatRepository) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		scoreRepo:     scoreRepo,
		chatRepo:      chatRepo,
		now:           time.Now,
	}
}

// Dashboard builds the full stats payload for one user.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID int) (*model.DashboardStats, error) {
	total, avg, err := s.analyticsRepo.QuizTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("quiz totals: %w", err)
	}

	days, err := s.analyticsRepo.ActivityDays(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("activity days: %w", err)
	}

	scores, err := s.scoreRepo.ListRecentByUser(ctx, userID, recentScoreWindow)
	if err != nil {
		return nil, fmt.Errorf("recent scores: %w", err)
	}

	chatCounts, err := s.chatRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chat counts: %w", err)
	}

	stats := &model.DashboardStats{
		TotalQuizzes:        total,
		AverageScore:        roundTenth(avg),
		Streak:              streakFromDays(days, s.now()),
		MasteryDistribution: masteryDistribution(scores),
		ActivityBreakdown:   activityBreakdown(total, chatCounts),
		RecentActivity:      recentActivity(scores),
		WeakAreas:           weakAreas(scores),
	}
	return stats, nil
}

// streakFromDays counts consecutive active calendar days ending today or
// yesterday. Days must be distinct and sorted newest first.
func streakFromDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	today := now.Truncate(24 * time.Hour)
	cursor := days[0].Truncate(24 * time.Hour)

	// A streak is alive if the last activity was today or yesterday.
	gap := int(today.Sub(cursor).Hours() / 24)
	if gap > 1 {
		return 0
	}

	streak := 1
	for _, d := range days[1:] {
		d = d.Truncate(24 * time.Hour)
		if int(cursor.Sub(d).Hours()/24) != 1 {
			break
		}
		streak++
		cursor = d
	}
	return streak
}

// masteryDistribution buckets recent scores into performance bands.
func masteryDistribution(scores []model.QuizScore) []model.MasteryBucket {
	buckets := []model.MasteryBucket{
		{Label: "Mastered (90-100%)"},
		{Label: "Proficient (70-89%)"},
		{Label: "Developing (50-69%)"},
		{Label: "Beginning (<50%)"},
	}
	for _, s := range scores {
		switch {
		case s.ScorePercentage >= 90:
			buckets[0].Count++
		case s.ScorePercentage >= 70:
			buckets[1].Count++
		case s.ScorePercentage >= 50:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}

func activityBreakdown(quizCount int, chatCounts map[string]int) []model.ActivitySlice {
	slices := []model.ActivitySlice{{Activity: "quizzes", Count: quizCount}}
	labels := map[string]string{
		"voice_qa":  "voice_qa",
		"interview": "interview",
	}
	for context, count := range chatCounts {
		label, ok := labels[context]
		if !ok {
			label = "chat"
		}
		merged := false
		for i := range slices {
			if slices[i].Activity == label {
				slices[i].Count += count
				merged = true
				break
			}
		}
		if !merged {
			slices = append(slices, model.ActivitySlice{Activity: label, Count: count})
		}
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].Activity < slices[j].Activity })
	return slices
}

func recentActivity(scores []model.QuizScore) []model.RecentActivity {
	feed := make([]model.RecentActivity, 0, recentFeedLimit)
	for _, s := range scores {
		if len(feed) >= recentFeedLimit {
			break
		}
		feed = append(feed, model.RecentActivity{
			Kind:      "quiz",
			Title:     s.QuizTitle,
			Score:     s.ScorePercentage,
			Timestamp: s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return feed
}

// weakAreas aggregates per-topic accuracy across recent submissions and
// surfaces topics below the mastery threshold, weakest first.
func weakAreas(scores []model.QuizScore) []model.WeakArea {
	type counter struct {
		total   int
		correct int
	}
	topics := make(map[string]*counter)

	for _, s := range scores {
		if len(s.AnswersData) == 0 {
			continue
		}
		var results []model.QuestionResult
		if err := json.Unmarshal(s.AnswersData, &results); err != nil {
			log.Debug().Err(err).Int("quiz_score_id", s.ID).Msg("skip malformed answers data")
			continue
		}
		for _, r := range results {
			topic := r.Topic
			if topic == "" {
				topic = "general"
			}
			c := topics[topic]
			if c == nil {
				c = &counter{}
				topics[topic] = c
			}
			c.total++
			if r.IsCorrect {
				c.correct++
			}
		}
	}

	var areas []model.WeakArea
	for topic, c := range topics {
		accuracy := float64(c.correct) / float64(c.total) * 100
		if accuracy < weakAreaThreshold {
			areas = append(areas, model.WeakArea{
				Topic:    topic,
				Accuracy: roundTenth(accuracy),
				Total:    c.total,
			})
		}
	}
	sort.Slice(areas, func(i, j int) bool {
		if areas[i].Accuracy != areas[j].Accuracy {
			return areas[i].Accuracy < areas[j].Accuracy
		}
		return areas[i].Topic < areas[j].Topic
	})
	return areas
}
