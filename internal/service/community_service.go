package service

import (
	"context"
	"errors"

	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/repository"
)

// ErrNotTopicOwner is returned when a user tries to delete someone
// else's thread.
var ErrNotTopicOwner = errors.New("topic belongs to another user")

// CommunityService manages the discussion board.
type CommunityService struct {
	repo *repository.CommunityRepository
}

// NewCommunityService creates a new CommunityService.
func NewCommunityService(repo *repository.CommunityRepository) *CommunityService {
	return &CommunityService{repo: repo}
}

// CreateTopic opens a thread.
func (s *CommunityService) CreateTopic(ctx context.Context, userID int, authorName string, req *model.CreateTopicRequest) (*model.CommunityTopic, error) {
	topic := &model.CommunityTopic{
		UserID:     userID,
		AuthorName: authorName,
		Title:      req.Title,
		Content:    req.Content,
	}
	if err := s.repo.CreateTopic(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// ListTopics returns threads newest first with comment counts.
func (s *CommunityService) ListTopics(ctx context.Context, page, limit int) ([]model.CommunityTopic, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListTopics(ctx, page, limit)
}

// GetTopic returns one thread with its comments.
func (s *CommunityService) GetTopic(ctx context.Context, id int) (*model.CommunityTopic, error) {
	return s.repo.GetTopic(ctx, id)
}

// DeleteTopic removes a thread. Only its author may delete it.
func (s *CommunityService) DeleteTopic(ctx context.Context, topicID, userID int) error {
	topic, err := s.repo.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}
	if topic.UserID != userID {
		return ErrNotTopicOwner
	}
	return s.repo.DeleteTopic(ctx, topicID)
}

// AddComment replies to a thread.
func (s *CommunityService) AddComment(ctx context.Context, topicID, userID int, authorName string, req *model.CreateCommentRequest) (*model.CommunityComment, error) {
	comment := &model.CommunityComment{
		TopicID:    topicID,
		UserID:     userID,
		AuthorName: authorName,
		Content:    req.Content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
