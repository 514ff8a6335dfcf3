package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/matheus3301/chatterm/internal/domain"
)

// DefaultPrivacy is sent when creating a group without an explicit setting.
const DefaultPrivacy = "private"

// ListGroups returns the groups the current user belongs to.
func (c *Client) ListGroups(ctx context.Context) ([]domain.Group, error) {
	var resp struct {
		Groups []domain.Group `json:"groups"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/groups/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// CreateGroup creates a group and returns its id.
func (c *Client) CreateGroup(ctx context.Context, name string, members []int64, privacy string) (int64, error) {
	if privacy == "" {
		privacy = DefaultPrivacy
	}
	if members == nil {
		members = []int64{}
	}
	body := struct {
		Name    string  `json:"name"`
		Members []int64 `json:"members"`
		Privacy string  `json:"privacy"`
	}{name, members, privacy}
	var resp struct {
		GroupID int64 `json:"group_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/groups/create", body, &resp); err != nil {
		return 0, err
	}
	return resp.GroupID, nil
}

// GroupDetails returns a group's description and member list.
func (c *Client) GroupDetails(ctx context.Context, groupID int64) (*domain.GroupDetails, error) {
	var resp struct {
		Group *domain.GroupDetails `json:"group"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/groups/%d", groupID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Group == nil {
		return nil, fmt.Errorf("group %d: empty response", groupID)
	}
	return resp.Group, nil
}

// LeaveGroup removes the current user from a group.
func (c *Client) LeaveGroup(ctx context.Context, groupID int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/groups/%d/leave", groupID), nil, nil)
}

// DeleteGroup deletes a group. Only its creator may do so.
func (c *Client) DeleteGroup(ctx context.Context, groupID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/groups/%d/delete", groupID), nil, nil)
}

// RemoveMember removes memberID from a group. Only admins may do so.
func (c *Client) RemoveMember(ctx context.Context, groupID, memberID int64) error {
	path := fmt.Sprintf("/api/groups/%d/remove-member/%d", groupID, memberID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// GroupMessages returns a group's message history, oldest first. The server
// omits group_id on these rows; it is filled in here.
func (c *Client) GroupMessages(ctx context.Context, groupID int64) ([]domain.Message, error) {
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/groups/%d/messages", groupID), nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Messages {
		resp.Messages[i].GroupID = groupID
	}
	return resp.Messages, nil
}
