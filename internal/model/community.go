package model

import "time"

// CommunityTopic is a discussion board thread.
type CommunityTopic struct {
	ID           int                `json:"id"`
	UserID       int                `json:"user_id"`
	AuthorName   string             `json:"author_name"`
	Title        string             `json:"title"`
	Content      string             `json:"content"`
	CommentCount int                `json:"comment_count"`
	Comments     []CommunityComment `json:"comments,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// CommunityComment is a reply inside a thread.
type CommunityComment struct {
	ID         int       `json:"id"`
	TopicID    int       `json:"topic_id"`
	UserID     int       `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateTopicRequest opens a new thread.
type CreateTopicRequest struct {
	Title   string `json:"title" binding:"required,min=3,max=255"`
	Content string `json:"content" binding:"required,min=1,max=10000"`
}

// CreateCommentRequest replies to a thread.
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}
