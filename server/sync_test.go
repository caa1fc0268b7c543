package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPostgresServer runs against a real database; set DATABASE_URL to enable
func newPostgresServer(t *testing.T) *Server {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	s, err := New(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func registerUser(t *testing.T, s *Server) map[string]string {
	t.Helper()
	name := "user-" + uuid.NewString()[:8]
	body := `{"username":"` + name + `","email":"` + name + `@example.com","password":"longenough"}`

	rec := serve(s, http.MethodPost, "/api/v1/register", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return map[string]string{"Authorization": "Bearer " + resp.Token}
}

func push(t *testing.T, s *Server, auth map[string]string, items ...SyncItem) SyncPushResponse {
	t.Helper()
	body, err := json.Marshal(SyncPushRequest{Items: items})
	require.NoError(t, err)

	rec := serve(s, http.MethodPost, "/api/v1/sync", string(body), auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SyncPushResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func pull(t *testing.T, s *Server, auth map[string]string, since int64) SyncPullResponse {
	t.Helper()
	rec := serve(s, http.MethodGet, "/api/v1/sync?since="+strconv.FormatInt(since, 10), "", auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SyncPullResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func payload(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestSyncPushPull(t *testing.T) {
	s := newPostgresServer(t)
	auth := registerUser(t, s)

	resp := push(t, s, auth,
		SyncItem{ClientID: "p1", Type: typeProject, ProjectID: "p1", EncryptedData: payload("garden")},
		SyncItem{ClientID: "i1", Type: typeItem, ProjectID: "p1", EncryptedData: payload("water")},
	)
	require.Len(t, resp.Updated, 2)
	assert.Equal(t, int64(1), resp.Updated[0].SyncVersion)
	assert.Equal(t, int64(2), resp.Updated[1].SyncVersion)

	got := pull(t, s, auth, 0)
	assert.Equal(t, int64(2), got.SyncVersion)
	require.Len(t, got.Items, 2)
	assert.Equal(t, payload("garden"), got.Items[0].EncryptedData)

	assert.Empty(t, pull(t, s, auth, 2).Items)

	push(t, s, auth, SyncItem{ClientID: "i1", Type: typeItem, ProjectID: "p1", Deleted: true})
	got = pull(t, s, auth, 2)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Deleted)
	assert.Equal(t, int64(3), got.SyncVersion)
}

func TestClearKeepsVersionMonotonic(t *testing.T) {
	s := newPostgresServer(t)
	auth := registerUser(t, s)

	push(t, s, auth,
		SyncItem{ClientID: "p1", Type: typeProject, ProjectID: "p1", EncryptedData: payload("garden")},
		SyncItem{ClientID: "i1", Type: typeItem, ProjectID: "p1", EncryptedData: payload("water")},
	)
	cursor := pull(t, s, auth, 0).SyncVersion

	rec := serve(s, http.MethodPost, "/api/v1/clear", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)

	// A device that synced before the clear sees the removals
	got := pull(t, s, auth, cursor)
	assert.Greater(t, got.SyncVersion, cursor)
	require.Len(t, got.Items, 2)
	for _, it := range got.Items {
		assert.True(t, it.Deleted, it.ClientID)
		assert.Empty(t, it.EncryptedData)
	}

	// and anything pushed afterwards
	resp := push(t, s, auth, SyncItem{ClientID: "i2", Type: typeItem, ProjectID: "p1", EncryptedData: payload("weed")})
	assert.Greater(t, resp.Updated[0].SyncVersion, got.SyncVersion)

	got = pull(t, s, auth, got.SyncVersion)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "i2", got.Items[0].ClientID)
	assert.False(t, got.Items[0].Deleted)
}
