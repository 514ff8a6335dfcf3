package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/matheus3301/chatterm/internal/domain"
)

// History returns the direct conversation with contactID, oldest first.
func (c *Client) History(ctx context.Context, contactID int64) ([]domain.Message, error) {
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/messages/history/%d", contactID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// DeleteMessage soft-deletes one of the current user's messages.
func (c *Client) DeleteMessage(ctx context.Context, msgID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/messages/delete/%d", msgID), nil, nil)
}

// EditMessage replaces the content of one of the current user's messages.
func (c *Client) EditMessage(ctx context.Context, msgID int64, content string) error {
	body := map[string]string{"content": content}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/messages/edit/%d", msgID), body, nil)
}
