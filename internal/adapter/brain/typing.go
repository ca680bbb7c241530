package brain

import (
	"context"
	"net/http"

	"fundbridge/internal/domain/entity"
)

type typingUpdateRequest struct {
	ReceiverID string `json:"receiver_id"`
	IsTyping   bool   `json:"is_typing"`
}

func (c *Client) UpdateTypingIndicator(ctx context.Context, receiverID string, isTyping bool) error {
	return c.do(ctx, http.MethodPost, "/v1/typing", nil, typingUpdateRequest{
		ReceiverID: receiverID,
		IsTyping:   isTyping,
	}, nil)
}

func (c *Client) GetTypingStatus(ctx context.Context, otherUserID string) (*entity.TypingState, error) {
	var state entity.TypingState
	if err := c.do(ctx, http.MethodGet, "/v1/typing/"+otherUserID, nil, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
