package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/bastiangx/rootsearch/pkg/root"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "metadata.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestEmptyStore(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	rows, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestIncrementOpenCount(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	md, err := s.IncrementOpenCount(ctx, "app:mail", at)
	require.NoError(t, err)
	assert.Equal(t, 1, md.OpenCount)
	assert.True(t, md.LastOpenedAt.Equal(at))

	md, err = s.IncrementOpenCount(ctx, "app:mail", at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, md.OpenCount)
	assert.True(t, md.LastOpenedAt.Equal(at.Add(time.Hour)))
}

func TestUpsertsKeepOtherColumns(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.SetAlias(ctx, "app:code", "vsc"))
	_, err := s.IncrementOpenCount(ctx, "app:code", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.SetFavorite(ctx, "app:code", true))
	require.NoError(t, s.SetAlias(ctx, "app:code", "code"))

	rows, err := s.LoadAll(ctx)
	require.NoError(t, err)
	md := rows["app:code"]
	assert.Equal(t, "code", md.Alias)
	assert.Equal(t, 1, md.OpenCount)
	assert.True(t, md.Favorite)
	assert.False(t, md.LastOpenedAt.IsZero())
}

func TestPersistsAcrossReopen(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.SetAlias(ctx, "app:term", "t"))
	require.NoError(t, s.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t", rows["app:term"].Alias)
	assert.True(t, rows["app:term"].LastOpenedAt.IsZero())
}

type item struct{ id, name string }

func (i item) UniqueID() string { return i.id }
func (i item) DisplayName() string { return i.name }
func (i item) Keywords() []string { return nil }
func (i item) Subtitle() string { return "" }
func (i item) Arguments() []root.Argument { return nil }
func (i item) Actions() []root.Action { return nil }
func (i item) IsSuitableForFallback() bool { return false }

type provider []root.RootItem

func (p provider) DisplayName() string { return "test" }
func (p provider) LoadItems() []root.RootItem { return p }
func (p provider) OnChange(func()) func() { return func() {} }

func TestManagerOverSQLite(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	m := root.NewManager(root.WithMetadataStore(s), root.WithLogger(logger.Discard()))
	m.AddProvider(provider{item{"app:code", "Visual Studio Code"}})
	m.ReloadProviders()
	require.NoError(t, m.SetAlias(ctx, "app:code", "vsc"))
	_, err := m.RecordOpen(ctx, "app:code")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	s, err = Open(path)
	require.NoError(t, err)
	m = root.NewManager(root.WithMetadataStore(s), root.WithLogger(logger.Discard()))
	defer m.Close()
	m.AddProvider(provider{item{"app:code", "Visual Studio Code"}})
	m.ReloadProviders()
	require.NoError(t, m.LoadMetadata(ctx))

	got := m.PrefixSearch("vsc")
	require.Len(t, got, 1)
	assert.Equal(t, 1, m.Metadata("app:code").OpenCount)
}
