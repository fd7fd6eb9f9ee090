package session

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func saved(t *testing.T, s Store) string {
	t.Helper()
	id, err := s.Load(context.Background())
	require.NoError(t, err)
	return id
}

func TestResolve_Order(t *testing.T) {
	tests := []struct {
		name      string
		durable   string
		ephemeral string
		url       string
		wantID    string
		wantSrc   Source
	}{
		{"durable wins", "d-1", "e-1", "http://x/?session=q-1#session=f-1", "d-1", SourceDurable},
		{"ephemeral next", "", "e-1", "http://x/?session=q-1", "e-1", SourceEphemeral},
		{"query next", "", "", "http://x/plan?session=q-1#session=f-1", "q-1", SourceQuery},
		{"fragment last", "", "", "http://x/#/today?tab=1&session=f-1&x=2", "f-1", SourceFragment},
		{"bare fragment", "", "", "http://x/#session=f-2", "f-2", SourceFragment},
		{"nothing mints", "", "", "http://x/", "minted", SourceNew},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			durable := &MemoryStore{id: tt.durable}
			ephemeral := &MemoryStore{id: tt.ephemeral}
			r := NewResolver(durable, ephemeral, nil).WithIDs(func() string { return "minted" })

			res := r.Resolve(context.Background(), mustURL(t, tt.url))
			assert.Equal(t, tt.wantID, res.ID)
			assert.Equal(t, tt.wantSrc, res.Source)
			assert.Equal(t, tt.wantID, saved(t, durable), "durable store is backfilled")
			if tt.ephemeral == "" {
				assert.Equal(t, tt.wantID, saved(t, ephemeral))
			} else {
				assert.Equal(t, tt.ephemeral, saved(t, ephemeral), "populated stores are left alone")
			}
		})
	}
}

func TestResolve_EphemeralHitDoesNotRewriteEphemeral(t *testing.T) {
	durable := &MemoryStore{}
	ephemeral := &countingStore{id: "e-1"}
	r := NewResolver(durable, ephemeral, nil)

	res := r.Resolve(context.Background(), nil)
	assert.Equal(t, "e-1", res.ID)
	assert.Equal(t, 0, ephemeral.saves)
	assert.Equal(t, "e-1", saved(t, durable))
}

func TestResolve_UnreadableStoreIsSkipped(t *testing.T) {
	broken := FuncStore{
		LoadFunc: func(context.Context) (string, error) { return "", errors.New("quota") },
		SaveFunc: func(context.Context, string) error { return errors.New("quota") },
	}
	ephemeral := &MemoryStore{}
	r := NewResolver(broken, ephemeral, nil)

	res := r.Resolve(context.Background(), mustURL(t, "http://x/?session=q-9"))
	assert.Equal(t, "q-9", res.ID)
	assert.Equal(t, "q-9", saved(t, ephemeral))
}

func TestResolve_NilStores(t *testing.T) {
	r := NewResolver(nil, nil, nil)
	res := r.Resolve(context.Background(), nil)
	assert.Equal(t, SourceNew, res.Source)
	assert.NotEmpty(t, res.ID)
}

func TestPersist(t *testing.T) {
	durable, ephemeral := &MemoryStore{}, &MemoryStore{}
	r := NewResolver(durable, ephemeral, nil)

	u, err := r.Persist(context.Background(), "abc", mustURL(t, "http://x/plan?tab=today#top"))
	require.NoError(t, err)
	assert.Equal(t, "abc", u.Query().Get("session"))
	assert.Equal(t, "today", u.Query().Get("tab"))
	assert.Equal(t, "top", u.Fragment)
	assert.Equal(t, "abc", saved(t, durable))
	assert.Equal(t, "abc", saved(t, ephemeral))

	failing := FuncStore{SaveFunc: func(context.Context, string) error { return errors.New("denied") }}
	other := &MemoryStore{}
	_, err = NewResolver(failing, other, nil).Persist(context.Background(), "abc", nil)
	assert.EqualError(t, err, "denied")
	assert.Equal(t, "abc", saved(t, other), "both stores are attempted")
}

func TestFromFragment(t *testing.T) {
	tests := map[string]string{
		"http://x/":                       "",
		"http://x/#top":                   "",
		"http://x/#session=":              "",
		"http://x/#session=a%2Db":         "a-b",
		"http://x/#a=1&session=z&b=2":     "z",
		"http://x/#/route?session=abc-12": "abc-12",
	}
	for raw, want := range tests {
		assert.Equal(t, want, FromFragment(mustURL(t, raw)), raw)
	}
	assert.Empty(t, FromFragment(nil))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	fs := FileStore{Path: filepath.Join(t.TempDir(), "nested", "session")}

	id, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, id, "missing file is empty, not an error")

	require.NoError(t, fs.Save(ctx, "abc-123"))
	id, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

type countingStore struct {
	id    string
	saves int
}

func (c *countingStore) Load(context.Context) (string, error) { return c.id, nil }

func (c *countingStore) Save(_ context.Context, id string) error {
	c.saves++
	c.id = id
	return nil
}
