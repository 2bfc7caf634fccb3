package repository

import (
	"context"

	"crosspost/domain/model"
)

// IPlatformAdapter is the uniform publish/stats/comments contract of a platform
type IPlatformAdapter interface {
	Platform() model.Provider
	Publish(ctx context.Context, userID string, content *model.PublishableContent) (*model.PublishResult, error)
	// GetStats returns stats keyed by post id. Posts it cannot resolve are absent.
	// The error only reports a platform-level failure such as a missing account.
	GetStats(ctx context.Context, userID string, posts []model.PostRef) (map[string]model.VideoStats, error)
	// GetComments never fails; any problem yields an empty list
	GetComments(ctx context.Context, userID string, post model.PostRef) []model.Comment
}

// IPostDeleter is implemented by adapters that can remove a published post
type IPostDeleter interface {
	DeletePost(ctx context.Context, userID string, post model.PostRef) error
}
