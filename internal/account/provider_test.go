package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProvider_SignUp(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": "user-from-provider"},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "anon-key")
	userID, err := p.SignUp(context.Background(), "ana@example.com", "hunter22", map[string]string{"full_name": "Ana"})

	require.NoError(t, err)
	assert.Equal(t, "user-from-provider", userID)
	assert.Equal(t, "/signup", gotPath)
	assert.Equal(t, "anon-key", gotAPIKey)
	assert.Equal(t, "ana@example.com", gotPayload["email"])

	data, ok := gotPayload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ana", data["full_name"])
}

func TestHTTPProvider_SignUp_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"msg": "User already registered"})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "anon-key")
	_, err := p.SignUp(context.Background(), "ana@example.com", "hunter22", nil)

	require.ErrorIs(t, err, ErrProviderRejected)
	assert.Contains(t, err.Error(), "User already registered")
}

func TestHTTPProvider_SignOut(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "anon-key")
	require.NoError(t, p.SignOut(context.Background(), "jwt-token"))
	assert.Equal(t, "Bearer jwt-token", gotAuth)
}
