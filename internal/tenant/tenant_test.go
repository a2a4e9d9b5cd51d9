package tenant

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsites/sitebuilder/internal/config"
	siteerrors "github.com/fieldsites/sitebuilder/internal/errors"
)

func newTestResolver(t *testing.T, cfg config.TenantsConfig, production bool) *Resolver {
	t.Helper()
	return NewResolver(cfg, production, slog.Default())
}

func TestResolveMappedHost(t *testing.T) {
	r := newTestResolver(t, config.TenantsConfig{
		Mapping: map[string]string{"acmeplumbing.com": "biz-001"},
	}, false)

	res, err := r.Resolve("acmeplumbing.com")
	require.NoError(t, err)
	assert.Equal(t, "biz-001", res.BusinessID)
	assert.Equal(t, SourceHostMapping, res.Source)
	assert.Equal(t, "acmeplumbing.com", res.Host)
}

func TestResolveNormalizesHost(t *testing.T) {
	r := newTestResolver(t, config.TenantsConfig{
		Mapping: map[string]string{"Acmeplumbing.COM": "biz-001"},
	}, false)

	for _, host := range []string{
		"acmeplumbing.com",
		"ACMEPLUMBING.COM",
		"acmeplumbing.com:8080",
		"acmeplumbing.com.",
	} {
		res, err := r.Resolve(host)
		require.NoError(t, err, "host %q", host)
		assert.Equal(t, "biz-001", res.BusinessID, "host %q", host)
		assert.Equal(t, "acmeplumbing.com", res.Host, "host %q", host)
	}
}

func TestResolveEnvDefault(t *testing.T) {
	r := newTestResolver(t, config.TenantsConfig{
		Mapping:           map[string]string{"acmeplumbing.com": "biz-001"},
		DefaultBusinessID: "biz-dev",
	}, false)

	res, err := r.Resolve("localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, "biz-dev", res.BusinessID)
	assert.Equal(t, SourceEnvDefault, res.Source)
}

func TestResolveProductionNeverFallsBack(t *testing.T) {
	// Even with a default configured the production gate refuses it.
	r := newTestResolver(t, config.TenantsConfig{
		Mapping:           map[string]string{"acmeplumbing.com": "biz-001"},
		DefaultBusinessID: "biz-dev",
	}, true)

	_, err := r.Resolve("unknown.example.com")
	require.Error(t, err)
	assert.True(t, siteerrors.IsCode(err, siteerrors.CodeUnresolvedHost))

	// Mapped hosts still resolve in production.
	res, err := r.Resolve("acmeplumbing.com")
	require.NoError(t, err)
	assert.Equal(t, "biz-001", res.BusinessID)
}

func TestResolveUnmappedWithoutDefault(t *testing.T) {
	r := newTestResolver(t, config.TenantsConfig{
		Mapping: map[string]string{"acmeplumbing.com": "biz-001"},
	}, false)

	_, err := r.Resolve("unknown.example.com")
	require.Error(t, err)
	assert.True(t, siteerrors.IsCode(err, siteerrors.CodeUnresolvedHost))
}

func TestResolveOverride(t *testing.T) {
	res, err := ResolveOverride("biz-042")
	require.NoError(t, err)
	assert.Equal(t, "biz-042", res.BusinessID)
	assert.Equal(t, SourceExplicitOverride, res.Source)
	assert.Empty(t, res.Host)

	_, err = ResolveOverride("")
	assert.Error(t, err)
}

func TestReplaceSwapsSnapshot(t *testing.T) {
	r := newTestResolver(t, config.TenantsConfig{
		Mapping: map[string]string{"old.example.com": "biz-001"},
	}, false)
	require.Equal(t, 1, r.Size())

	r.Replace(map[string]string{
		"new.example.com":   "biz-002",
		"other.example.com": "biz-003",
	})
	require.Equal(t, 2, r.Size())

	_, err := r.Resolve("old.example.com")
	assert.Error(t, err)

	res, err := r.Resolve("new.example.com")
	require.NoError(t, err)
	assert.Equal(t, "biz-002", res.BusinessID)
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Example.COM", "example.com", false},
		{"example.com:443", "example.com", false},
		{"example.com.", "example.com", false},
		{"localhost", "localhost", false},
		{"localhost:3000", "localhost", false},
		{"127.0.0.1:8080", "127.0.0.1", false},
		{"bücher.example", "xn--bcher-kva.example", false},
		{"", "", true},
		{"   ", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeHost(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestNormalizeHostIdempotent(t *testing.T) {
	once, err := NormalizeHost("Bücher.Example:8443")
	require.NoError(t, err)
	twice, err := NormalizeHost(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestResolutionContext(t *testing.T) {
	ctx := context.Background()

	_, err := FromContext(ctx)
	assert.ErrorIs(t, err, ErrNoResolution)

	want := Resolution{BusinessID: "biz-001", Source: SourceHostMapping, Host: "acmeplumbing.com"}
	ctx = WithResolution(ctx, want)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMappingStoreRoundTrip(t *testing.T) {
	store, err := NewMappingStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "Acmeplumbing.COM:443", "biz-001"))
	require.NoError(t, store.Put(ctx, "elitehvac.com", "biz-002"))

	mapping, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"acmeplumbing.com": "biz-001",
		"elitehvac.com":    "biz-002",
	}, mapping)

	// Upsert replaces the business for an existing host.
	require.NoError(t, store.Put(ctx, "acmeplumbing.com", "biz-099"))
	mapping, err = store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "biz-099", mapping["acmeplumbing.com"])

	require.NoError(t, store.Delete(ctx, "elitehvac.com"))
	mapping, err = store.All(ctx)
	require.NoError(t, err)
	_, ok := mapping["elitehvac.com"]
	assert.False(t, ok)
}

func TestMappingStoreRejectsEmptyBusiness(t *testing.T) {
	store, err := NewMappingStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.Put(context.Background(), "example.com", ""))
}

func TestLoadMappingMergesStoreAndConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mappings.db")
	store, err := NewMappingStore(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "acmeplumbing.com", "biz-001"))
	require.NoError(t, store.Put(ctx, "elitehvac.com", "biz-002"))
	require.NoError(t, store.Close())

	mapping, err := LoadMapping(ctx, config.TenantsConfig{
		MappingDB: dbPath,
		Mapping: map[string]string{
			"elitehvac.com":     "biz-override",
			"springroofing.com": "biz-003",
		},
	})
	require.NoError(t, err)

	// Inline entries win over stored rows for the same host.
	assert.Equal(t, map[string]string{
		"acmeplumbing.com":  "biz-001",
		"elitehvac.com":     "biz-override",
		"springroofing.com": "biz-003",
	}, mapping)
}

func TestLoadMappingWithoutStore(t *testing.T) {
	mapping, err := LoadMapping(context.Background(), config.TenantsConfig{
		Mapping: map[string]string{"acmeplumbing.com": "biz-001"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"acmeplumbing.com": "biz-001"}, mapping)
}

func TestHostForPicksStableHost(t *testing.T) {
	r := newTestResolver(t, config.TenantsConfig{
		Mapping: map[string]string{
			"zeta.example.com": "biz-001",
			"acme.example.com": "biz-001",
			"hvac.example.com": "biz-002",
		},
	}, false)

	host, ok := r.HostFor("biz-001")
	require.True(t, ok)
	assert.Equal(t, "acme.example.com", host, "first host in sorted order")

	_, ok = r.HostFor("biz-404")
	assert.False(t, ok)
}
