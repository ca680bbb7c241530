package brain

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fundbridge/internal/domain/entity"
)

type SendMessageRequest struct {
	ReceiverID   string `json:"receiver_id"`
	Content      string `json:"content"`
	AttachmentID string `json:"attachment_id,omitempty"`
	ParentID     string `json:"parent_id,omitempty"`
	ThreadTitle  string `json:"thread_title,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*entity.Message, error) {
	var msg entity.Message
	if err := c.do(ctx, http.MethodPost, "/v1/messages", nil, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) GetMessages(ctx context.Context, otherUserID string, page, pageSize int) ([]entity.Message, error) {
	query := url.Values{}
	query.Set("other_user_id", otherUserID)
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	var out struct {
		Items []entity.Message `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/messages", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) GetThreads(ctx context.Context) ([]entity.Thread, error) {
	var out struct {
		Items []entity.Thread `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/threads", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

type markReadRequest struct {
	IsRead bool `json:"is_read"`
}

// MarkThreadRead is best-effort; callers log and drop the error.
func (c *Client) MarkThreadRead(ctx context.Context, threadID string, isRead bool) error {
	return c.do(ctx, http.MethodPut, "/v1/threads/"+threadID+"/read", nil, markReadRequest{IsRead: isRead}, nil)
}
