package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/chatterm/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeBackend mirrors the response shapes of the chat server.
func fakeBackend(t *testing.T) (*Client, *chi.Mux) {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if c, err := req.Cookie("session"); err != nil || c.Value != "secret" {
				http.Redirect(w, req, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, SessionCookie: "secret"})
	require.NoError(t, err)
	return c, r
}

func TestListContacts(t *testing.T) {
	c, r := fakeBackend(t)
	r.Get("/api/contacts/list", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]any{"contacts": []map[string]any{
			{"user_id": 2, "username": "bob", "email": "bob@x.io", "status": "online"},
			{"user_id": 3, "username": "cy", "email": "cy@x.io", "status": "offline"},
		}})
	})

	contacts, err := c.ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "bob", contacts[0].Username)
	assert.True(t, contacts[0].Online())
	assert.False(t, contacts[1].Online())
}

func TestSearchUsersEscapesQuery(t *testing.T) {
	c, r := fakeBackend(t)
	r.Get("/api/contacts/search", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "al ice&x", req.URL.Query().Get("q"))
		writeJSON(w, 200, map[string]any{"results": []map[string]any{
			{"user_id": 5, "username": "alice", "email": "a@x.io", "is_contact": true},
		}})
	})

	res, err := c.SearchUsers(context.Background(), "al ice&x")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].IsContact)
}

func TestApplicationError(t *testing.T) {
	c, r := fakeBackend(t)
	r.Post("/api/contacts/add", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]int64
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, int64(9), body["contact_user_id"])
		writeJSON(w, 400, map[string]any{"success": false, "error": "Already in contacts"})
	})

	err := c.AddContact(context.Background(), 9)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Already in contacts", apiErr.Message)
}

func TestSuccessFalseWith200(t *testing.T) {
	c, r := fakeBackend(t)
	r.Delete("/api/messages/delete/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]any{"success": false, "error": "Cannot delete this message"})
	})

	err := c.DeleteMessage(context.Background(), 4)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Cannot delete this message", apiErr.Message)
}

func TestUnauthenticatedRedirect(t *testing.T) {
	_, r := fakeBackend(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	anon, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = anon.ListGroups(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGroupsEndpoints(t *testing.T) {
	c, r := fakeBackend(t)
	r.Get("/api/groups/list", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]any{"groups": []map[string]any{
			{"group_id": 1, "name": "ops", "created_by": 7, "role": "admin", "member_count": 3, "unread_count": 2, "created_at": nil},
		}})
	})
	r.Post("/api/groups/create", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "dev", body["name"])
		assert.Equal(t, "private", body["privacy"])
		assert.Equal(t, []any{float64(2), float64(3)}, body["members"])
		writeJSON(w, 200, map[string]any{"success": true, "group_id": 11})
	})
	r.Get("/api/groups/{id}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "11", chi.URLParam(req, "id"))
		writeJSON(w, 200, map[string]any{"success": true, "group": map[string]any{
			"group_id": 11, "name": "dev", "created_by": 7, "creator_username": "me", "user_role": "admin",
			"members": []map[string]any{{"user_id": 7, "username": "me", "role": "admin", "status": "online"}},
		}})
	})
	r.Get("/api/groups/{id}/messages", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]any{"messages": []map[string]any{
			{"msg_id": 1, "sender_id": 2, "sender_username": "bob", "content": "hi", "timestamp": "2024-05-01T10:00:00", "status": "sent", "attachment_path": nil, "is_mine": false},
		}})
	})
	var removed, left, deleted string
	r.Delete("/api/groups/{id}/remove-member/{member}", func(w http.ResponseWriter, req *http.Request) {
		removed = chi.URLParam(req, "id") + "/" + chi.URLParam(req, "member")
		writeJSON(w, 200, map[string]any{"success": true})
	})
	r.Post("/api/groups/{id}/leave", func(w http.ResponseWriter, req *http.Request) {
		left = chi.URLParam(req, "id")
		writeJSON(w, 200, map[string]any{"success": true})
	})
	r.Delete("/api/groups/{id}/delete", func(w http.ResponseWriter, req *http.Request) {
		deleted = chi.URLParam(req, "id")
		writeJSON(w, 200, map[string]any{"success": true})
	})

	ctx := context.Background()
	groups, err := c.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, domain.RoleAdmin, groups[0].Role)
	assert.Equal(t, 2, groups[0].UnreadCount)

	id, err := c.CreateGroup(ctx, "dev", []int64{2, 3}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	details, err := c.GroupDetails(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, "me", details.CreatorUsername)
	require.Len(t, details.Members, 1)

	msgs, err := c.GroupMessages(ctx, 11)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(11), msgs[0].GroupID)
	assert.False(t, msgs[0].HasAttachment())

	require.NoError(t, c.RemoveMember(ctx, 11, 3))
	require.NoError(t, c.LeaveGroup(ctx, 12))
	require.NoError(t, c.DeleteGroup(ctx, 13))
	assert.Equal(t, "11/3", removed)
	assert.Equal(t, "12", left)
	assert.Equal(t, "13", deleted)
}

func TestEditMessage(t *testing.T) {
	c, r := fakeBackend(t)
	r.Put("/api/messages/edit/{id}", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "fixed", body["content"])
		writeJSON(w, 200, map[string]any{"success": true, "msg_id": 4, "content": "fixed"})
	})
	require.NoError(t, c.EditMessage(context.Background(), 4, "fixed"))
}

func TestUpload(t *testing.T) {
	c, r := fakeBackend(t)
	r.Post("/api/files/upload", func(w http.ResponseWriter, req *http.Request) {
		f, hdr, err := req.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "report.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))
		writeJSON(w, 200, map[string]any{"success": true, "file": map[string]any{
			"filename": "abc_report.pdf", "original_name": "report.pdf", "type": "documents", "size": len(data),
		}})
	})

	fd, err := c.Upload(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, &domain.FileDescriptor{Filename: "abc_report.pdf", OriginalName: "report.pdf", Type: domain.CategoryDocuments, Size: 8}, fd)
}

func TestUploadFailure(t *testing.T) {
	c, r := fakeBackend(t)
	r.Post("/api/files/upload", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 400, map[string]any{"success": false, "error": "File type not allowed"})
	})
	_, err := c.Upload(context.Background(), "x.exe", strings.NewReader("MZ"))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "File type not allowed", apiErr.Message)
}

func TestDownload(t *testing.T) {
	c, r := fakeBackend(t)
	r.Get("/api/files/download/{path}/{name}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "abc.pdf", chi.URLParam(req, "path"))
		_, _ = w.Write([]byte("content"))
	})
	r.Get("/api/files/download/{path}", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"File not found"}`, http.StatusNotFound)
	})

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "abc.pdf", "my report.pdf", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "content", buf.String())

	_, err = c.Download(context.Background(), "missing.png", "", &buf)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "File not found", apiErr.Message)
}

func TestDownloadPath(t *testing.T) {
	assert.Equal(t, "/api/files/download/abc.png", DownloadPath("abc.png", ""))
	assert.Equal(t, "/api/files/download/abc.pdf/my%20report.pdf", DownloadPath("abc.pdf", "my report.pdf"))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}
