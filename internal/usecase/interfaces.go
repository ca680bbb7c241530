package usecase

import (
	"context"
	"io"

	"fundbridge/internal/adapter/brain"
	"fundbridge/internal/domain/entity"
)

// ChatClient is the slice of the Brain API the send and polling flows touch.
type ChatClient interface {
	SendMessage(ctx context.Context, req brain.SendMessageRequest) (*entity.Message, error)
	UploadAttachment(ctx context.Context, fileName, contentType string, src io.Reader) (*entity.Attachment, error)
	GetMessages(ctx context.Context, otherUserID string, page, pageSize int) ([]entity.Message, error)
	MarkThreadRead(ctx context.Context, threadID string, isRead bool) error
}

type TypingClient interface {
	UpdateTypingIndicator(ctx context.Context, receiverID string, isTyping bool) error
	GetTypingStatus(ctx context.Context, otherUserID string) (*entity.TypingState, error)
}

type AnalyticsClient interface {
	GetAdminAnalytics(ctx context.Context) (*entity.AnalyticsSummary, error)
}

type FeatureClient interface {
	CheckFeatureAccess(ctx context.Context, userID, feature string) (*entity.FeatureGrant, error)
}
