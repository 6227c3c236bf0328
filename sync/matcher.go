// ABOUTME: Entity resolution for external project labels and people
// ABOUTME: Maps time-tracking projects onto clients and external users onto internal users
package sync

import (
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/sprintledger/models"
)

// Strategy names the resolution rule that produced a match.
type Strategy string

const (
	StrategyOverride           Strategy = "override"
	StrategyExact              Strategy = "exact"
	StrategySubstring          Strategy = "substring"
	StrategyNormalizedContains Strategy = "normalized_substring"
)

// Match is a resolved project label.
type Match struct {
	ClientID   uuid.UUID
	ClientName string
	Strategy   Strategy
}

type catalogEntry struct {
	id         uuid.UUID
	name       string
	lower      string
	normalized string
}

// ProjectMatcher resolves project labels against a client catalog.
//
// Rules are tried in this order and the first hit wins:
//  1. manual override (an empty override value suppresses the mapping)
//  2. exact case-insensitive name
//  3. case-insensitive substring containment in either direction
//  4. containment on Normalize() tokens in either direction
//
// Catalog order only breaks ties between clients that satisfy the same rule.
type ProjectMatcher struct {
	catalog   []catalogEntry
	overrides map[string]string
}

// NewProjectMatcher creates a matcher from the client catalog and the override table.
func NewProjectMatcher(clients []models.Client, overrides map[string]string) *ProjectMatcher {
	m := &ProjectMatcher{
		catalog:   make([]catalogEntry, 0, len(clients)),
		overrides: overrides,
	}
	for _, c := range clients {
		m.catalog = append(m.catalog, catalogEntry{
			id:         c.ID,
			name:       c.Name,
			lower:      strings.ToLower(c.Name),
			normalized: Normalize(c.Name),
		})
	}
	return m
}

// Resolve maps a project label to a client. A miss is not an error.
func (m *ProjectMatcher) Resolve(label string) (Match, bool) {
	if strings.TrimSpace(label) == "" {
		return Match{}, false
	}

	if canonical, ok := m.overrides[label]; ok {
		if canonical == "" {
			return Match{}, false
		}
		if e, found := m.byName(canonical); found {
			return e.match(StrategyOverride), true
		}
	}

	if e, found := m.byName(label); found {
		return e.match(StrategyExact), true
	}

	lower := strings.ToLower(label)
	for _, e := range m.catalog {
		if e.lower == "" {
			continue
		}
		if strings.Contains(lower, e.lower) || strings.Contains(e.lower, lower) {
			return e.match(StrategySubstring), true
		}
	}

	normalized := Normalize(label)
	if normalized == "" {
		return Match{}, false
	}
	for _, e := range m.catalog {
		if e.normalized == "" {
			continue
		}
		if strings.Contains(normalized, e.normalized) || strings.Contains(e.normalized, normalized) {
			return e.match(StrategyNormalizedContains), true
		}
	}

	return Match{}, false
}

func (m *ProjectMatcher) byName(name string) (catalogEntry, bool) {
	for _, e := range m.catalog {
		if strings.EqualFold(e.name, name) {
			return e, true
		}
	}
	return catalogEntry{}, false
}

func (e catalogEntry) match(s Strategy) Match {
	return Match{ClientID: e.id, ClientName: e.name, Strategy: s}
}

// UserMatcher resolves external people onto internal users. There is no fuzzy fallback.
type UserMatcher struct {
	byEmail  map[string]uuid.UUID
	byPerson map[int64]uuid.UUID
}

// NewUserMatcher creates a matcher from existing users.
func NewUserMatcher(users []models.User) *UserMatcher {
	m := &UserMatcher{
		byEmail:  make(map[string]uuid.UUID),
		byPerson: make(map[int64]uuid.UUID),
	}

	for _, u := range users {
		if email := normalizeEmail(u.Email); email != "" {
			m.byEmail[email] = u.ID
		}
		if u.ExternalPersonID != nil {
			m.byPerson[*u.ExternalPersonID] = u.ID
		}
	}

	return m
}

// ResolveEmail looks up a user by case-insensitive email equality.
func (m *UserMatcher) ResolveEmail(email string) (uuid.UUID, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return uuid.Nil, false
	}
	id, ok := m.byEmail[normalized]
	return id, ok
}

// ResolvePerson looks up a user by the board tool's person id.
func (m *UserMatcher) ResolvePerson(personID int64) (uuid.UUID, bool) {
	id, ok := m.byPerson[personID]
	return id, ok
}
