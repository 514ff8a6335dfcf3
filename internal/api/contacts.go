package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/matheus3301/chatterm/internal/domain"
)

// ListContacts returns the current user's contacts.
func (c *Client) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	var resp struct {
		Contacts []domain.Contact `json:"contacts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/contacts/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

// SearchUsers finds users by username or email.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var resp struct {
		Results []domain.SearchResult `json:"results"`
	}
	path := "/api/contacts/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// AddContact adds userID to the current user's contacts.
func (c *Client) AddContact(ctx context.Context, userID int64) error {
	body := map[string]int64{"contact_user_id": userID}
	return c.doJSON(ctx, http.MethodPost, "/api/contacts/add", body, nil)
}
