package pagestore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReplaceGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload, _ := json.Marshal(map[string]string{"headline": "Hvac Services in Austin"})
	bundle := Bundle{
		Route:       "/services/ac-repair",
		Kind:        "service",
		Payload:     payload,
		GeneratedAt: time.Unix(1700000000, 0),
	}
	require.NoError(t, s.ReplaceBusiness(ctx, "b-42", []Bundle{bundle}))

	got, err := s.Get(ctx, "b-42", "/services/ac-repair")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "service", got.Kind)
	assert.JSONEq(t, string(payload), string(got.Payload))
	assert.Equal(t, int64(1700000000), got.GeneratedAt.Unix())
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Get(context.Background(), "b-42", "/nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRoutesAreScopedPerBusiness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceBusiness(ctx, "b-1", []Bundle{
		{Route: "/", Kind: "home", Payload: []byte(`{}`)},
		{Route: "/about", Kind: "about", Payload: []byte(`{}`)},
	}))
	require.NoError(t, s.ReplaceBusiness(ctx, "b-2", []Bundle{
		{Route: "/", Kind: "home", Payload: []byte(`{}`)},
	}))

	routes, err := s.Routes(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/about"}, routes)

	// Replacing with an empty bundle list clears the business.
	require.NoError(t, s.ReplaceBusiness(ctx, "b-1", nil))
	routes, err = s.Routes(ctx, "b-1")
	require.NoError(t, err)
	assert.Empty(t, routes)

	// The other tenant is untouched.
	got, err := s.Get(ctx, "b-2", "/")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestReplaceBusinessSwapsSurface(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceBusiness(ctx, "b-1", []Bundle{
		{Route: "/", Kind: "home", Payload: []byte(`{"v":1}`)},
		{Route: "/services/old", Kind: "service", Payload: []byte(`{}`)},
	}))

	require.NoError(t, s.ReplaceBusiness(ctx, "b-1", []Bundle{
		{Route: "/", Kind: "home", Payload: []byte(`{"v":2}`)},
		{Route: "/services/new", Kind: "service", Payload: []byte(`{}`)},
	}))

	routes, err := s.Routes(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/services/new"}, routes)

	got, err := s.Get(ctx, "b-1", "/")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"v":2}`, string(got.Payload))
}

func TestReplaceBusinessFailureKeepsPreviousSurface(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceBusiness(ctx, "b-1", []Bundle{
		{Route: "/", Kind: "home", Payload: []byte(`{"v":1}`)},
		{Route: "/about", Kind: "about", Payload: []byte(`{}`)},
	}))

	// A bad bundle anywhere in the batch must leave the previous
	// generation fully intact, not a partial surface.
	err := s.ReplaceBusiness(ctx, "b-1", []Bundle{
		{Route: "/", Kind: "home", Payload: []byte(`{"v":2}`)},
		{Route: "", Kind: "broken", Payload: []byte(`{}`)},
	})
	require.Error(t, err)

	routes, err := s.Routes(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/about"}, routes)

	got, err := s.Get(ctx, "b-1", "/")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"v":1}`, string(got.Payload))
}

func TestReplaceBusinessValidatesKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	assert.Error(t, s.ReplaceBusiness(ctx, "", []Bundle{{Route: "/"}}))
	assert.Error(t, s.ReplaceBusiness(ctx, "b-1", []Bundle{{Kind: "home"}}))
}
