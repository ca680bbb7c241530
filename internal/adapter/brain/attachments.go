package brain

import (
	"context"
	"io"

	"fundbridge/internal/domain/entity"
)

// UploadAttachment streams a pre-validated file to the backend and returns the
// stored attachment record. Size and content-type limits are enforced by the
// caller before any bytes leave the process.
func (c *Client) UploadAttachment(ctx context.Context, fileName, contentType string, src io.Reader) (*entity.Attachment, error) {
	var att entity.Attachment
	if err := c.upload(ctx, "/v1/attachments", "file", fileName, contentType, src, &att); err != nil {
		return nil, err
	}
	return &att, nil
}
