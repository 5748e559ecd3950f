package root

import "time"

// Argument describes one input a root item accepts before it runs, such as
// the query of a web search command.
type Argument struct {
	Name        string `toml:"name" msgpack:"n"`
	Placeholder string `toml:"placeholder" msgpack:"p,omitempty"`
	Required    bool   `toml:"required" msgpack:"r,omitempty"`
}

// Action is something the launcher can do with an item.
type Action struct {
	ID    string `toml:"id" msgpack:"id"`
	Title string `toml:"title" msgpack:"t"`
}

// RootItem is one searchable, launchable entity.
type RootItem interface {
	UniqueID() string
	DisplayName() string
	Keywords() []string
	Subtitle() string
	Arguments() []Argument
	Actions() []Action
	IsSuitableForFallback() bool
}

// RootProvider supplies a set of root items and signals when that set changes.
//
// LoadItems should return an empty list rather than fail.
type RootProvider interface {
	DisplayName() string
	LoadItems() []RootItem
	// OnChange registers fn to run whenever the item set changes and returns
	// a function that removes the subscription.
	OnChange(fn func()) (unsubscribe func())
}

// ItemMetadata is per-item state owned by the user rather than the provider.
type ItemMetadata struct {
	Alias        string
	OpenCount    int
	LastOpenedAt time.Time
	Favorite     bool
}
