package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/wire"
)

func TestFlows_CreateAndGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/flows":
			var payload wire.FlowPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.False(t, payload.IsPublished, "create always sends IsPublished false")

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(wire.CreateFlowResponse{FlowID: "f-123"})
		case r.Method == http.MethodGet && r.URL.Path == "/flows/f-123":
			_ = json.NewEncoder(w).Encode(wire.FlowPayload{FlowName: "Welcome"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	flows := NewFlows(server.URL, nil)

	id, err := flows.Create(context.Background(), wire.FlowPayload{FlowName: "Welcome", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "f-123", id)

	payload, err := flows.Get(context.Background(), "f-123")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", payload.FlowName)
}

func TestFlows_GetNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFlows(server.URL, nil).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestFlows_PublishUsageLocked(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/flows/f-1/publish", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"campaigns":[{"id":"c1","name":"Spring promo","status":"running"}]}`))
	}))
	defer server.Close()

	err := NewFlows(server.URL, nil).Publish(context.Background(), "f-1")
	require.ErrorIs(t, err, ErrUsageLocked)

	lockErr, ok := IsUsageLocked(err)
	require.True(t, ok)
	assert.Equal(t, "f-1", lockErr.FlowID)
	require.Len(t, lockErr.Campaigns, 1)
	assert.Equal(t, "Spring promo", lockErr.Campaigns[0].Name)
}

func TestFlows_Usage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/flows/f-1/usage", r.URL.Path)
		_, _ = w.Write([]byte(`{"campaigns":[{"id":"c1","name":"Promo","status":"scheduled"}]}`))
	}))
	defer server.Close()

	usage, err := NewFlows(server.URL, nil).Usage(context.Background(), "f-1")
	require.NoError(t, err)
	assert.True(t, usage.Locked)
	require.Len(t, usage.Campaigns, 1)
}

func TestFlows_Fork(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/flows/f-1/fork", r.URL.Path)
		_ = json.NewEncoder(w).Encode(wire.ForkFlowResponse{FlowID: "f-2"})
	}))
	defer server.Close()

	id, err := NewFlows(server.URL, nil).Fork(context.Background(), "f-1")
	require.NoError(t, err)
	assert.Equal(t, "f-2", id)
}
