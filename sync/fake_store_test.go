package sync

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/sprintledger/models"
)

// memStore is an in-memory Store keyed the same way as the SQL stores.
type memStore struct {
	clients map[uuid.UUID]*models.Client
	sprints map[uuid.UUID]*models.Sprint
	users   []models.User
	entries map[string]*models.TimeEntry
	runs    []*models.SyncRun

	sprintLoads   int
	refreshedOn   time.Time
	failUpsertFor map[string]bool
	failClients   bool
}

func newMemStore() *memStore {
	return &memStore{
		clients:       make(map[uuid.UUID]*models.Client),
		sprints:       make(map[uuid.UUID]*models.Sprint),
		entries:       make(map[string]*models.TimeEntry),
		failUpsertFor: make(map[string]bool),
	}
}

func (m *memStore) addClient(name string, campaignStart *time.Time) *models.Client {
	c := &models.Client{ID: uuid.New(), Name: name, CampaignStartDate: campaignStart, IsActive: true}
	m.clients[c.ID] = c
	return c
}

func (m *memStore) addSprint(clientID uuid.UUID, number int, start, end string) *models.Sprint {
	s := &models.Sprint{
		ID:           uuid.New(),
		ClientID:     clientID,
		SprintNumber: &number,
		StartDate:    mustParseDate(start),
		EndDate:      mustParseDate(end),
	}
	m.sprints[s.ID] = s
	return s
}

func (m *memStore) GetClient(_ context.Context, id uuid.UUID) (*models.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListSprints(_ context.Context, clientID uuid.UUID) ([]models.Sprint, error) {
	m.sprintLoads++
	var out []models.Sprint
	for _, s := range m.sprints {
		if s.ClientID == clientID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) ListClients(_ context.Context) ([]models.Client, error) {
	if m.failClients {
		return nil, errors.New("clients unavailable")
	}
	out := make([]models.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memStore) ListUsers(_ context.Context) ([]models.User, error) {
	return append([]models.User(nil), m.users...), nil
}

func (m *memStore) UpsertClient(_ context.Context, client *models.Client) error {
	for _, c := range m.clients {
		if c.BoardItemID == client.BoardItemID {
			client.ID = c.ID
			client.CreatedAt = c.CreatedAt
			cp := *client
			m.clients[c.ID] = &cp
			return nil
		}
	}
	client.ID = uuid.New()
	cp := *client
	m.clients[client.ID] = &cp
	return nil
}

func (m *memStore) UpsertSprint(_ context.Context, sprint *models.Sprint) error {
	for _, s := range m.sprints {
		if s.BoardSubitemID == sprint.BoardSubitemID {
			sprint.ID = s.ID
			cp := *sprint
			m.sprints[s.ID] = &cp
			return nil
		}
	}
	sprint.ID = uuid.New()
	cp := *sprint
	m.sprints[sprint.ID] = &cp
	return nil
}

func (m *memStore) UpsertTimeEntry(_ context.Context, entry *models.TimeEntry) error {
	if m.failUpsertFor[entry.SourceID] {
		return errors.New("constraint violation")
	}
	if existing, ok := m.entries[entry.SourceID]; ok {
		entry.ID = existing.ID
	} else {
		entry.ID = uuid.New()
	}
	cp := *entry
	cp.Tags = append([]models.Tag(nil), entry.Tags...)
	m.entries[entry.SourceID] = &cp
	return nil
}

func (m *memStore) RefreshSprintStatuses(_ context.Context, today time.Time) (int, error) {
	m.refreshedOn = today
	for _, s := range m.sprints {
		s.Status = models.SprintStatusOn(s.StartDate, s.EndDate, today)
	}
	return len(m.sprints), nil
}

func (m *memStore) CreateSyncRun(_ context.Context, run *models.SyncRun) error {
	cp := *run
	m.runs = append(m.runs, &cp)
	return nil
}

func (m *memStore) FinishSyncRun(_ context.Context, run *models.SyncRun) error {
	for i, r := range m.runs {
		if r.ID == run.ID {
			cp := *run
			m.runs[i] = &cp
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memStore) clientByName(name string) *models.Client {
	for _, c := range m.clients {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func mustParseDate(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	d := mustParseDate(s)
	return &d
}
