// Package cli is an interactive prompt over the root item index, for
// debugging and trying queries by hand.
package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/bastiangx/rootsearch/internal/utils"
	"github.com/bastiangx/rootsearch/pkg/ranking"
	"github.com/bastiangx/rootsearch/pkg/root"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	idStyle   = lipgloss.NewStyle().Faint(true)
)

// InputHandler reads queries and commands line by line:
//
//	goo               search
//	:open app:chrome  record an activation
//	:alias app:code vsc
//	:stats
type InputHandler struct {
	manager  *root.Manager
	ranker   *ranking.Service
	itemType string
	limit    int
	minLen   int
	maxLen   int

	in  io.Reader
	log *log.Logger
}

// NewInputHandler creates a prompt reading from in and printing to out.
func NewInputHandler(manager *root.Manager, ranker *ranking.Service, itemType string, limit, minLen, maxLen int, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		manager:  manager,
		ranker:   ranker,
		itemType: itemType,
		limit:    limit,
		minLen:   minLen,
		maxLen:   maxLen,
		in:       in,
		log:      logger.NewWithWriter(out, ""),
	}
}

// Start runs the prompt until the input ends or ctx is done.
func (h *InputHandler) Start(ctx context.Context) error {
	h.log.Print("rootsearch CLI")
	h.log.Print("type a query and press Enter (:open, :alias, :stats; Ctrl+C to exit):")

	scanner := bufio.NewScanner(h.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			h.handleCommand(ctx, line)
			continue
		}
		h.handleQuery(line)
	}
	return scanner.Err()
}

func (h *InputHandler) handleQuery(query string) {
	if !utils.IsValidQuery(query, h.minLen, h.maxLen) {
		h.log.Errorf("Query length must be between %d and %d: %q", h.minLen, h.maxLen, query)
		return
	}

	start := time.Now()
	items := h.manager.Search(query)
	elapsed := time.Since(start)
	h.log.Debugf("Took [ %v ] for query '%s'", elapsed, query)

	if len(items) == 0 {
		fallback := h.manager.FallbackItems()
		if len(fallback) == 0 {
			h.log.Warnf("No items found for query: '%s'", query)
			return
		}
		h.log.Printf("No matches for '%s', fallback items:", query)
		items = fallback
	}
	if len(items) > h.limit {
		items = items[:h.limit]
	}

	h.log.Printf("Found %d items for '%s':", len(items), query)
	for i, item := range items {
		md := h.manager.Metadata(item.UniqueID())
		score := h.ranker.Score(h.itemType, item.UniqueID())
		h.log.Printf("%2d. %-40s %s (opens: %d, frecency: %.3f)",
			i+1, nameStyle.Render(item.DisplayName()), idStyle.Render(item.UniqueID()), md.OpenCount, score)
	}
}

func (h *InputHandler) handleCommand(ctx context.Context, line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":open":
		if len(fields) != 2 {
			h.log.Error("usage: :open <id>")
			return
		}
		md, err := h.manager.RecordOpen(ctx, fields[1])
		if err != nil {
			h.log.Errorf("Open failed: %v", err)
			return
		}
		rec, err := h.ranker.RegisterVisit(ctx, h.itemType, fields[1])
		if err != nil {
			h.log.Warnf("Visit not persisted: %v", err)
		}
		h.log.Printf("Opened %s (opens: %d, frecency: %.3f)", fields[1], md.OpenCount, h.ranker.Frecency(rec))

	case ":alias":
		if len(fields) != 3 {
			h.log.Error("usage: :alias <id> <alias>")
			return
		}
		if err := h.manager.SetAlias(ctx, fields[1], fields[2]); err != nil {
			h.log.Errorf("Alias failed: %v", err)
			return
		}
		h.log.Printf("%s is now reachable as '%s'", fields[1], fields[2])

	case ":stats":
		stats := h.manager.Stats()
		h.log.Printf("providers=%d items=%d nodes=%d aliases=%d",
			stats["providers"], stats["items"], stats["nodes"], stats["aliases"])

	default:
		h.log.Errorf("Unknown command %s", fields[0])
	}
}
