package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-key-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	content, err := client.Complete(context.Background(), "sk-test-key-123", "test-model", []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestCompleteNon2xxReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Complete(context.Background(), "sk-test-key-123", "test-model", nil)
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "rate limit exceeded", apiErr.Message)
}

func TestCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithTimeout(20*time.Millisecond))
	_, err := client.Complete(context.Background(), "sk-test-key-123", "test-model", nil)
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.Timeout)
}

func TestCompleteMissingChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Complete(context.Background(), "sk-test-key-123", "test-model", nil)
	assert.Error(t, err)
}

func TestValidateKey(t *testing.T) {
	assert.True(t, ValidateKey("sk-or-v1-abcdef"))
	assert.False(t, ValidateKey(""))
	assert.False(t, ValidateKey("sk-short"))
	assert.False(t, ValidateKey("pk-1234567890"))
}

func TestHumanizeError(t *testing.T) {
	cases := []struct {
		err      error
		keyIndex int
		want     string
	}{
		{&APIError{Status: 401}, 0, "Key #1 authentication failed"},
		{&APIError{Status: 403}, 1, "Key #2 access denied"},
		{&APIError{Status: 429}, 2, "Key #3 rate limited"},
		{&APIError{Status: 500}, 0, "Key #1 server error"},
		{&APIError{Timeout: true}, 0, "Key #1 request timeout"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HumanizeError(tc.err, tc.keyIndex))
	}
}
