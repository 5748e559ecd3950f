package providers

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/rootsearch/pkg/root"
	"github.com/charmbracelet/log"
)

// catalogFile is the on-disk layout of a catalog:
//
//	[[item]]
//	id = "app:firefox"
//	name = "Firefox"
//	subtitle = "Web Browser"
//	keywords = ["browser", "web"]
//
//	[[item.actions]]
//	id = "open"
//	title = "Open"
type catalogFile struct {
	Name  string `toml:"name"`
	Items []Item `toml:"item"`
}

// Catalog serves items declared in a TOML file.
type Catalog struct {
	path string

	mu    sync.RWMutex
	name  string
	items []root.RootItem

	changes notifier
}

var _ root.RootProvider = (*Catalog)(nil)

// NewCatalog creates a catalog provider and loads path once. A file that
// fails to load leaves the catalog empty; see Reload.
func NewCatalog(path string) *Catalog {
	c := &Catalog{path: path, name: "catalog"}
	if err := c.load(); err != nil {
		log.Warnf("Failed to load catalog %s: %v. Serving no items...", path, err)
	}
	return c
}

func (c *Catalog) load() error {
	var file catalogFile
	if _, err := toml.DecodeFile(c.path, &file); err != nil {
		return fmt.Errorf("decoding catalog: %w", err)
	}

	items := make([]root.RootItem, 0, len(file.Items))
	seen := make(map[string]bool, len(file.Items))
	for i := range file.Items {
		it := &file.Items[i]
		if it.ID == "" || it.Name == "" {
			log.Warnf("Skipping catalog entry %d in %s: id and name are required", i, c.path)
			continue
		}
		if seen[it.ID] {
			log.Warnf("Skipping duplicate catalog id %q in %s", it.ID, c.path)
			continue
		}
		seen[it.ID] = true
		items = append(items, it)
	}

	c.mu.Lock()
	if file.Name != "" {
		c.name = file.Name
	}
	c.items = items
	c.mu.Unlock()

	log.Debugf("Loaded %d catalog items from %s", len(items), c.path)
	return nil
}

// Reload re-reads the catalog file and notifies subscribers. On error the
// previously loaded items stay in place and no notification is sent.
func (c *Catalog) Reload() error {
	if err := c.load(); err != nil {
		log.Warnf("Failed to reload catalog %s: %v", c.path, err)
		return err
	}
	c.changes.notify()
	return nil
}

// Path returns the catalog file path.
func (c *Catalog) Path() string { return c.path }

func (c *Catalog) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Catalog) LoadItems() []root.RootItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]root.RootItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) OnChange(fn func()) func() {
	return c.changes.subscribe(fn)
}
