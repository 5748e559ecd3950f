/*
Package server implements msgpack IPC for root item search.

The server reads a stream of msgpack encoded requests from stdin and writes
one msgpack response per request to stdout. Logs go to stderr so the stream
stays clean.

# IPC

Every request carries an ID echoed back in the response and an op naming
the operation. The other fields depend on the op:

	{"id": "1", "op": "search", "q": "goo", "l": 10}
	{"id": "2", "op": "visit", "i": "app:chrome"}
	{"id": "3", "op": "frecency", "t": "emoji", "i": "smile"}
	{"id": "4", "op": "reload"}
	{"id": "5", "op": "health"}

Search results are ranked from 1 and carry the item's current frecency:

	{"id": "1", "r": [{"id": "app:chrome", "n": "Google Chrome", "r": 1, "f": 2.01}], "c": 1, "t": 87}

When nothing matches, the items suitable for fallback are returned instead
and "fb" is set. Timing ("t") is in microseconds.

Failures are reported as

	{"id": "2", "e": "unknown item app:nope", "c": 404}

Once started the server writes {"status": "ready"} before reading requests.
*/
package server

// Ops understood by the server.
const (
	OpSearch   = "search"
	OpVisit    = "visit"
	OpFrecency = "frecency"
	OpReload   = "reload"
	OpHealth   = "health"
)

// Request is the union of all request shapes.
type Request struct {
	ID     string `msgpack:"id"`
	Op     string `msgpack:"op"`
	Query  string `msgpack:"q,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
	Type   string `msgpack:"t,omitempty"`
	ItemID string `msgpack:"i,omitempty"`
}

// ItemResult is one search hit.
type ItemResult struct {
	ID       string  `msgpack:"id"`
	Name     string  `msgpack:"n"`
	Subtitle string  `msgpack:"s,omitempty"`
	Rank     uint16  `msgpack:"r"`
	Score    float64 `msgpack:"f"`
}

// SearchResponse answers OpSearch.
type SearchResponse struct {
	ID        string       `msgpack:"id"`
	Results   []ItemResult `msgpack:"r"`
	Count     int          `msgpack:"c"`
	Fallback  bool         `msgpack:"fb,omitempty"`
	TimeTaken int64        `msgpack:"t"`
}

// FrecencyResponse answers OpVisit and OpFrecency.
type FrecencyResponse struct {
	ID          string  `msgpack:"id"`
	Type        string  `msgpack:"t"`
	ItemID      string  `msgpack:"i"`
	Count       int     `msgpack:"c"`
	Score       float64 `msgpack:"f"`
	LastVisited int64   `msgpack:"v,omitempty"` // unix micros
	Opens       int     `msgpack:"o,omitempty"`
}

// StatusResponse answers OpReload and OpHealth.
type StatusResponse struct {
	ID     string         `msgpack:"id,omitempty"`
	Status string         `msgpack:"status"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// ErrorResponse holds basic error information for a failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
