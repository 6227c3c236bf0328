package sync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/sprintledger/models"
)

func testCatalog(names ...string) []models.Client {
	clients := make([]models.Client, len(names))
	for i, name := range names {
		clients[i] = models.Client{ID: uuid.New(), Name: name}
	}
	return clients
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Icon By Design", "iconbydesign"},
		{"IconByDesign", "iconbydesign"},
		{"Pack & Send", "packsend"},
		{"OSHC Australia Pty. Ltd", "oshcaustraliaptyltd"},
		{"  --  ", ""},
		{"", ""},
		{"Café 24/7", "caf247"},
	}

	for _, tt := range tests {
		result := Normalize(tt.input)
		if result != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestResolveProjectExactMatch(t *testing.T) {
	clients := testCatalog("Moonpig", "Sovereign Interiors")
	matcher := NewProjectMatcher(clients, nil)

	match, found := matcher.Resolve("Sovereign Interiors")
	if !found {
		t.Fatal("expected to find Sovereign Interiors")
	}
	if match.ClientID != clients[1].ID {
		t.Errorf("expected %s, got %s", clients[1].ID, match.ClientID)
	}
	if match.Strategy != StrategyExact {
		t.Errorf("expected exact strategy, got %s", match.Strategy)
	}

	match, found = matcher.Resolve("sovereign INTERIORS")
	if !found || match.Strategy != StrategyExact {
		t.Errorf("expected case-insensitive exact match, got %+v found=%v", match, found)
	}
}

func TestResolveProjectNormalizedSubstring(t *testing.T) {
	clients := testCatalog("Icon By Design")
	matcher := NewProjectMatcher(clients, nil)

	match, found := matcher.Resolve("IconByDesign")
	if !found {
		t.Fatal("expected IconByDesign to resolve")
	}
	if match.ClientID != clients[0].ID {
		t.Errorf("resolved to wrong client %s", match.ClientID)
	}
	// Only the normalized rule can bridge the spacing difference.
	if match.Strategy != StrategyNormalizedContains {
		t.Errorf("expected normalized_substring strategy, got %s", match.Strategy)
	}
}

func TestResolveProjectSubstringEitherDirection(t *testing.T) {
	clients := testCatalog("Luxo Living")
	matcher := NewProjectMatcher(clients, nil)

	match, found := matcher.Resolve("Luxo Living - SEO retainer")
	if !found || match.Strategy != StrategySubstring {
		t.Errorf("label containing client name should match by substring, got %+v found=%v", match, found)
	}

	match, found = matcher.Resolve("Luxo")
	if !found || match.Strategy != StrategySubstring {
		t.Errorf("client name containing label should match by substring, got %+v found=%v", match, found)
	}
}

func TestResolveProjectOverride(t *testing.T) {
	clients := testCatalog("Grace Loves Lace", "Grace Love")
	overrides := map[string]string{"Grace Love Lace": "grace loves lace"}
	matcher := NewProjectMatcher(clients, overrides)

	match, found := matcher.Resolve("Grace Love Lace")
	if !found {
		t.Fatal("expected override to resolve")
	}
	if match.ClientID != clients[0].ID || match.Strategy != StrategyOverride {
		t.Errorf("expected override to Grace Loves Lace, got %+v", match)
	}
}

func TestResolveProjectEmptyOverrideSuppresses(t *testing.T) {
	clients := testCatalog("LVLY")
	matcher := NewProjectMatcher(clients, map[string]string{"LVLY": ""})

	if match, found := matcher.Resolve("LVLY"); found {
		t.Errorf("empty override must suppress mapping, got %+v", match)
	}

	// Override keys are exact: a differently-cased label falls through to matching.
	if _, found := matcher.Resolve("lvly"); !found {
		t.Error("expected lowercase label to resolve through exact match")
	}
}

func TestResolveProjectOverrideMissingFromCatalogFallsThrough(t *testing.T) {
	clients := testCatalog("Moonpig")
	matcher := NewProjectMatcher(clients, map[string]string{"Moon Pig": "Moon Pig Group"})

	match, found := matcher.Resolve("Moon Pig")
	if !found {
		t.Fatal("expected fallback to normalized matching")
	}
	if match.Strategy != StrategyNormalizedContains {
		t.Errorf("expected normalized_substring, got %s", match.Strategy)
	}
}

func TestResolveProjectNoMatch(t *testing.T) {
	matcher := NewProjectMatcher(testCatalog("Moonpig", "Nutrition Warehouse"), nil)

	for _, label := range []string{"Internal Training", "", "   ", "---"} {
		if match, found := matcher.Resolve(label); found {
			t.Errorf("Resolve(%q) unexpectedly matched %+v", label, match)
		}
	}
}

func TestResolveProjectCatalogOrderBreaksTies(t *testing.T) {
	clients := testCatalog("Acme", "Acme Labs")
	matcher := NewProjectMatcher(clients, nil)

	match, found := matcher.Resolve("Acme Labs Website")
	if !found {
		t.Fatal("expected a match")
	}
	if match.ClientID != clients[0].ID {
		t.Errorf("expected first catalog entry to win, got %s", match.ClientName)
	}
}

func TestMatchUserByEmail(t *testing.T) {
	personID := int64(4411)
	existing := []models.User{
		{ID: uuid.New(), Email: "alice@example.com", ExternalPersonID: &personID},
		{ID: uuid.New(), Email: "Bob@Example.com"},
	}

	matcher := NewUserMatcher(existing)

	id, found := matcher.ResolveEmail("ALICE@example.com ")
	if !found || id != existing[0].ID {
		t.Errorf("expected alice, got %s found=%v", id, found)
	}

	id, found = matcher.ResolveEmail("bob@example.com")
	if !found || id != existing[1].ID {
		t.Errorf("expected bob, got %s found=%v", id, found)
	}

	if _, found := matcher.ResolveEmail("charlie@example.com"); found {
		t.Error("expected no match for charlie@example.com")
	}
	if _, found := matcher.ResolveEmail(""); found {
		t.Error("expected no match for empty email")
	}

	id, found = matcher.ResolvePerson(4411)
	if !found || id != existing[0].ID {
		t.Errorf("expected person 4411 to resolve to alice, got %s", id)
	}
	if _, found := matcher.ResolvePerson(1); found {
		t.Error("expected no match for unknown person id")
	}
}
