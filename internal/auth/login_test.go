package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"blockopt/internal/session"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, loginPath, r.URL.Path)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "daniel", creds["username"])
		require.Equal(t, "hunter2", creds["password"])

		json.NewEncoder(w).Encode(map[string]string{"access": "acc-1", "refresh": "ref-1"})
	}))
	defer srv.Close()

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, Login(context.Background(), newTestHTTPClient(t), srv.URL, "daniel", "hunter2", store))

	creds := store.Current()
	require.NotNil(t, creds)
	require.Equal(t, "acc-1", creds.Access)
	require.Equal(t, "ref-1", creds.Refresh)
	require.Equal(t, "daniel", creds.Username)
}

func TestLoginRejected(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusBadRequest} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"no"}`, status)
		}))

		store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
		err := Login(context.Background(), newTestHTTPClient(t), srv.URL, "daniel", "wrong", store)
		require.ErrorIs(t, err, ErrInvalidCredentials, "status %d", status)
		require.Nil(t, store.Current(), "rejected login must not establish a session")
		srv.Close()
	}
}

func TestLoginIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access": "acc-only"})
	}))
	defer srv.Close()

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	err := Login(context.Background(), newTestHTTPClient(t), srv.URL, "daniel", "hunter2", store)
	require.Error(t, err)
	require.Nil(t, store.Current())
}
