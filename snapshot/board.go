// ABOUTME: File-backed board source read from JSON board exports
// ABOUTME: Converts raw item and sub-item field rows into typed board records
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/harperreed/sprintledger/sync"
)

// BoardExport is the on-disk layout of one exported board.
type BoardExport struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Groups []GroupExport `json:"groups"`
}

type GroupExport struct {
	Title string       `json:"title"`
	Items []ItemExport `json:"items"`
}

type ItemExport struct {
	ID       json.Number  `json:"id"`
	Name     string       `json:"name"`
	Fields   []RawField   `json:"fields"`
	Subitems []ItemExport `json:"subitems,omitempty"`
}

// BoardSnapshot implements sync.BoardSource over exports keyed by board id.
type BoardSnapshot struct {
	boards map[string]BoardExport
	fields FieldNames
	pages  PageOptions
	logger *zap.Logger
}

// NewBoardSnapshot wraps already-decoded exports.
func NewBoardSnapshot(boards []BoardExport, fields FieldNames, pages PageOptions, logger *zap.Logger) *BoardSnapshot {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BoardSnapshot{
		boards: make(map[string]BoardExport, len(boards)),
		fields: fields,
		pages:  pages,
		logger: logger,
	}
	for _, b := range boards {
		s.boards[b.ID] = b
	}
	return s
}

// LoadBoardExport reads one board export from path.
func LoadBoardExport(path string) (BoardExport, error) {
	var export BoardExport
	data, err := os.ReadFile(path)
	if err != nil {
		return export, fmt.Errorf("failed to read board snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &export); err != nil {
		return export, fmt.Errorf("failed to parse board snapshot %s: %w", path, err)
	}
	return export, nil
}

// GetBoard returns the typed board. Items in each group are read through the page loop.
func (s *BoardSnapshot) GetBoard(ctx context.Context, boardID string) (*sync.Board, error) {
	export, ok := s.boards[boardID]
	if !ok {
		return nil, fmt.Errorf("board %s not in snapshot", boardID)
	}

	board := &sync.Board{ID: export.ID, Name: export.Name}
	for _, g := range export.Groups {
		raw, err := Paginate(ctx, s.logger, "items of "+g.Title, s.pages, func(_ context.Context, page, size int) ([]ItemExport, error) {
			return slicePage(g.Items, page, size), nil
		})
		if err != nil {
			return nil, err
		}

		group := sync.BoardGroup{Title: g.Title}
		for _, it := range raw {
			item, err := s.item(it)
			if err != nil {
				return nil, err
			}
			group.Items = append(group.Items, item)
		}
		board.Groups = append(board.Groups, group)
	}
	return board, nil
}

func (s *BoardSnapshot) item(it ItemExport) (sync.BoardItem, error) {
	id, err := parseID(it.ID)
	if err != nil {
		return sync.BoardItem{}, fmt.Errorf("item %q: %w", it.Name, err)
	}
	item := sync.BoardItem{
		ID:     id,
		Name:   it.Name,
		Fields: s.fields.MapClientFields(it.Fields),
	}
	for _, sub := range it.Subitems {
		subID, err := parseID(sub.ID)
		if err != nil {
			return sync.BoardItem{}, fmt.Errorf("subitem %q: %w", sub.Name, err)
		}
		item.Subitems = append(item.Subitems, sync.BoardSubitem{
			ID:     subID,
			Name:   sub.Name,
			Fields: s.fields.MapSprintFields(sub.Fields),
		})
	}
	return item, nil
}

func parseID(n json.Number) (int64, error) {
	id, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", n)
	}
	return id, nil
}
