package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/rootsearch/pkg/root"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
name = "apps"

[[item]]
id = "app:chrome"
name = "Google Chrome"
subtitle = "Web Browser"
keywords = ["browser"]

[[item.actions]]
id = "open"
title = "Open"

[[item]]
id = "app:calendar"
name = "Google Calendar"

[[item]]
id = "cmd:search-web"
name = "Search the Web"
fallback = true

[[item.arguments]]
name = "query"
required = true

[[item]]
id = ""
name = "missing id"

[[item]]
id = "app:chrome"
name = "duplicate"
`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestCatalogLoad(t *testing.T) {
	c := NewCatalog(writeCatalog(t, sampleCatalog))

	assert.Equal(t, "apps", c.DisplayName())
	items := c.LoadItems()
	require.Len(t, items, 3, "invalid and duplicate entries are skipped")

	chrome := items[0]
	assert.Equal(t, "app:chrome", chrome.UniqueID())
	assert.Equal(t, "Google Chrome", chrome.DisplayName())
	assert.Equal(t, "Web Browser", chrome.Subtitle())
	assert.Equal(t, []string{"browser"}, chrome.Keywords())
	assert.Equal(t, []root.Action{{ID: "open", Title: "Open"}}, chrome.Actions())

	web := items[2]
	assert.True(t, web.IsSuitableForFallback())
	assert.Equal(t, []root.Argument{{Name: "query", Required: true}}, web.Arguments())
}

func TestCatalogMissingFileServesNothing(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Empty(t, c.LoadItems())
	assert.Error(t, c.Reload())
}

func TestCatalogReloadNotifies(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	c := NewCatalog(path)

	calls := 0
	unsubscribe := c.OnChange(func() { calls++ })

	require.NoError(t, os.WriteFile(path, []byte(`
[[item]]
id = "app:terminal"
name = "Terminal"
`), 0644))
	require.NoError(t, c.Reload())
	assert.Equal(t, 1, calls)
	require.Len(t, c.LoadItems(), 1)
	assert.Equal(t, "Terminal", c.LoadItems()[0].DisplayName())

	unsubscribe()
	require.NoError(t, c.Reload())
	assert.Equal(t, 1, calls)
}

func TestCatalogBrokenReloadKeepsItems(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	c := NewCatalog(path)

	require.NoError(t, os.WriteFile(path, []byte("[[item]\nbroken"), 0644))
	assert.Error(t, c.Reload())
	assert.Len(t, c.LoadItems(), 3)
}

func TestStaticSetNotifies(t *testing.T) {
	s := NewStatic("static", &Item{ID: "a", Name: "Alpha"})
	assert.Equal(t, "static", s.DisplayName())
	assert.Len(t, s.LoadItems(), 1)

	notified := false
	s.OnChange(func() { notified = true })
	s.Set(&Item{ID: "b", Name: "Beta"}, &Item{ID: "c", Name: "Gamma"})

	assert.True(t, notified)
	assert.Len(t, s.LoadItems(), 2)
}
