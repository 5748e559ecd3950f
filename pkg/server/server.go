package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/bastiangx/rootsearch/internal/utils"
	"github.com/bastiangx/rootsearch/pkg/config"
	"github.com/bastiangx/rootsearch/pkg/ranking"
	"github.com/bastiangx/rootsearch/pkg/root"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Index is the part of root.Manager the server needs.
type Index interface {
	Search(query string) []root.RootItem
	FallbackItems() []root.RootItem
	RecordOpen(ctx context.Context, id string) (root.ItemMetadata, error)
	ReloadAsync(ctx context.Context) <-chan error
	Stats() map[string]int
}

// Ranker is the part of ranking.Service the server needs.
type Ranker interface {
	RegisterVisit(ctx context.Context, itemType, id string) (ranking.Record, error)
	Record(itemType, id string) ranking.Record
	Frecency(rec ranking.Record) float64
}

var (
	_ Index  = (*root.Manager)(nil)
	_ Ranker = (*ranking.Service)(nil)
)

// Server handles the msgpack IPC loop.
type Server struct {
	index    Index
	ranker   Ranker
	search   config.SearchConfig
	itemType string

	dec *msgpack.Decoder
	enc *msgpack.Encoder
	log *log.Logger

	requests int
}

// NewServer creates a server reading requests from r and writing responses to w.
func NewServer(index Index, ranker Ranker, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	return &Server{
		index:    index,
		ranker:   ranker,
		search:   cfg.Search,
		itemType: cfg.Ranking.ItemType,
		dec:      msgpack.NewDecoder(r),
		enc:      msgpack.NewEncoder(w),
		log:      logger.New("server"),
	}
}

// Start serves requests until the input ends, ctx is done, or the stream
// breaks. A clean end of input returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting server")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		// each request is read whole, so a malformed one does not desync the stream
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("Input closed after %d requests", s.requests)
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return err
		}
		s.requests++

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.log.Errorf("Unmarshaling request: %v", err)
			s.sendError("", "invalid request", 400)
			continue
		}
		s.handle(ctx, req)
	}
}

func (s *Server) handle(ctx context.Context, req Request) {
	switch req.Op {
	case OpSearch:
		s.handleSearch(req)
	case OpVisit:
		s.handleVisit(ctx, req)
	case OpFrecency:
		s.handleFrecency(req)
	case OpReload:
		s.handleReload(ctx, req)
	case OpHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok", Stats: s.index.Stats()})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown op: %q", req.Op), 400)
	}
}

func (s *Server) limitFor(req Request) int {
	if req.Limit < 1 || req.Limit > s.search.Limit {
		return s.search.Limit
	}
	return req.Limit
}

func (s *Server) handleSearch(req Request) {
	query := utils.NormalizeQuery(req.Query)
	if !utils.IsValidQuery(query, s.search.MinQuery, s.search.MaxQuery) {
		s.log.Debugf("Rejected query %q", query)
		s.sendError(req.ID, fmt.Sprintf("query must be %d to %d characters", s.search.MinQuery, s.search.MaxQuery), 400)
		return
	}

	start := time.Now()
	items := s.index.Search(query)
	fallback := false
	if len(items) == 0 && query != "" {
		items = s.index.FallbackItems()
		fallback = len(items) > 0
	}
	if limit := s.limitFor(req); len(items) > limit {
		items = items[:limit]
	}

	ranks := utils.CreateRankList(len(items))
	results := make([]ItemResult, len(items))
	for i, item := range items {
		results[i] = ItemResult{
			ID:       item.UniqueID(),
			Name:     item.DisplayName(),
			Subtitle: item.Subtitle(),
			Rank:     ranks[i],
			Score:    s.ranker.Frecency(s.ranker.Record(s.itemType, item.UniqueID())),
		}
	}

	s.send(SearchResponse{
		ID:        req.ID,
		Results:   results,
		Count:     len(results),
		Fallback:  fallback,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

// handleVisit counts an activation. Root items also bump their open count;
// other types only feed the ranking service.
func (s *Server) handleVisit(ctx context.Context, req Request) {
	if req.ItemID == "" {
		s.sendError(req.ID, "missing item id", 400)
		return
	}
	itemType := req.Type
	if itemType == "" {
		itemType = s.itemType
	}

	var opens int
	if itemType == s.itemType {
		md, err := s.index.RecordOpen(ctx, req.ItemID)
		switch {
		case errors.Is(err, root.ErrUnknownItem):
			s.sendError(req.ID, "unknown item "+req.ItemID, 404)
			return
		case err != nil:
			s.log.Warnf("Open of %s not persisted: %v", req.ItemID, err)
		}
		opens = md.OpenCount
	}

	rec, err := s.ranker.RegisterVisit(ctx, itemType, req.ItemID)
	switch {
	case errors.Is(err, ranking.ErrPersistence):
		s.log.Warnf("Visit of %s:%s not persisted: %v", itemType, req.ItemID, err)
	case err != nil:
		s.sendError(req.ID, err.Error(), 400)
		return
	}

	resp := s.frecencyResponse(req.ID, rec)
	resp.Opens = opens
	s.send(resp)
}

func (s *Server) handleFrecency(req Request) {
	if req.ItemID == "" {
		s.sendError(req.ID, "missing item id", 400)
		return
	}
	itemType := req.Type
	if itemType == "" {
		itemType = s.itemType
	}
	s.send(s.frecencyResponse(req.ID, s.ranker.Record(itemType, req.ItemID)))
}

func (s *Server) frecencyResponse(id string, rec ranking.Record) FrecencyResponse {
	resp := FrecencyResponse{
		ID:     id,
		Type:   rec.ItemType,
		ItemID: rec.ItemID,
		Count:  rec.VisitedCount,
		Score:  s.ranker.Frecency(rec),
	}
	if rec.LastVisitedAt != nil {
		resp.LastVisited = rec.LastVisitedAt.UnixMicro()
	}
	return resp
}

func (s *Server) handleReload(ctx context.Context, req Request) {
	if err := <-s.index.ReloadAsync(ctx); err != nil {
		s.log.Errorf("Reload failed: %v", err)
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	s.send(StatusResponse{ID: req.ID, Status: "reloaded", Stats: s.index.Stats()})
}

func (s *Server) send(response any) error {
	if err := s.enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return err
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
