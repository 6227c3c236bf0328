// ABOUTME: Per-run cache of each client's ordered sprints and campaign start date
// ABOUTME: Built lazily on first lookup and discarded with the run that owns it
package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/sprintledger/models"
)

// ClientSprints is the cached sprint view of one client.
type ClientSprints struct {
	ClientID      uuid.UUID
	Sprints       []models.Sprint // ascending by start date
	CampaignStart *time.Time
}

// First returns the earliest-starting sprint, or nil when there are none.
func (c *ClientSprints) First() *models.Sprint {
	if len(c.Sprints) == 0 {
		return nil
	}
	return &c.Sprints[0]
}

// Last returns the latest-starting sprint, or nil when there are none.
func (c *ClientSprints) Last() *models.Sprint {
	if len(c.Sprints) == 0 {
		return nil
	}
	return &c.Sprints[len(c.Sprints)-1]
}

// Covering returns the first sprint, in start order, whose inclusive range holds date.
func (c *ClientSprints) Covering(date time.Time) *models.Sprint {
	d := models.DateOf(date)
	for i := range c.Sprints {
		s := &c.Sprints[i]
		if models.DateOf(s.StartDate).After(d) {
			break
		}
		if s.Contains(d) {
			return s
		}
	}
	return nil
}

// SprintIndex caches ClientSprints by client id. Sprints are treated as immutable for
// the lifetime of the index, so entries are never invalidated. Not safe for concurrent use.
type SprintIndex struct {
	reader SprintReader
	cache  map[uuid.UUID]*ClientSprints
}

// NewSprintIndex creates an empty index reading from reader.
func NewSprintIndex(reader SprintReader) *SprintIndex {
	return &SprintIndex{
		reader: reader,
		cache:  make(map[uuid.UUID]*ClientSprints),
	}
}

// Load returns the client's sprint view, fetching it on first access. Failed loads are
// not cached.
func (idx *SprintIndex) Load(ctx context.Context, clientID uuid.UUID) (*ClientSprints, error) {
	if cs, ok := idx.cache[clientID]; ok {
		return cs, nil
	}

	client, err := idx.reader.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client %s: %w", clientID, err)
	}
	if client == nil {
		return nil, fmt.Errorf("client %s: %w", clientID, models.ErrNotFound)
	}

	sprints, err := idx.reader.ListSprints(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sprints for client %s: %w", clientID, err)
	}

	ordered := make([]models.Sprint, len(sprints))
	copy(ordered, sprints)
	sort.SliceStable(ordered, func(i, j int) bool {
		return models.DateOf(ordered[i].StartDate).Before(models.DateOf(ordered[j].StartDate))
	})

	cs := &ClientSprints{ClientID: clientID, Sprints: ordered}
	if client.CampaignStartDate != nil {
		d := models.DateOf(*client.CampaignStartDate)
		cs.CampaignStart = &d
	}

	idx.cache[clientID] = cs
	return cs, nil
}

// Len reports how many clients are cached.
func (idx *SprintIndex) Len() int {
	return len(idx.cache)
}
