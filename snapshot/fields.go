// ABOUTME: Maps raw board field rows onto the typed client and sprint slots
// ABOUTME: Handles numeric, date, person-reference and sprint-label columns
package snapshot

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/harperreed/sprintledger/models"
	"github.com/harperreed/sprintledger/sync"
)

// RawField is one column value as exported by the board tool. RawValue is usually a JSON
// document; DisplayValue is set for mirror and lookup columns.
type RawField struct {
	FieldName    string `json:"field_name"`
	RawValue     string `json:"raw_value"`
	DisplayValue string `json:"display_value,omitempty"`
}

// FieldNames names the board columns feeding each typed slot.
type FieldNames struct {
	CampaignStartDate string
	ClientMonthlyRate string
	AgencyValue       string
	Lead              string
	Support           string
	SEOLead           string
	Niche             string
	Priority          string
	CampaignType      string
	ContractLength    string
	ReportStatus      string
	LastReportDate    string
	LastInvoiceDate   string

	StartDate         string
	EndDate           string
	SprintLabel       string
	SprintMonthlyRate string
	KPITarget         string
	KPIAchieved       string
}

// DefaultFieldNames are the column titles used on the agency's boards.
var DefaultFieldNames = FieldNames{
	CampaignStartDate: "Campaign Start Date",
	ClientMonthlyRate: "Monthly Rate",
	AgencyValue:       "Agency Value",
	Lead:              "DPR Lead",
	Support:           "DPR Support",
	SEOLead:           "SEO Lead",
	Niche:             "Niches",
	Priority:          "Client Priority",
	CampaignType:      "Campaign Type",
	ContractLength:    "Contract Length",
	ReportStatus:      "Report Status",
	LastReportDate:    "Last Report Date",
	LastInvoiceDate:   "Last Invoice Date",

	StartDate:         "Start Date",
	EndDate:           "End Date",
	SprintLabel:       "Sprint",
	SprintMonthlyRate: "Monthly Rate (AUD)",
	KPITarget:         "Link KPI Per Quarter",
	KPIAchieved:       "Links Achieved Per Quarter",
}

type fieldSet map[string]RawField

func indexFields(fields []RawField) fieldSet {
	out := make(fieldSet, len(fields))
	for _, f := range fields {
		out[f.FieldName] = f
	}
	return out
}

// MapClientFields extracts the typed client columns from raw rows.
func (n FieldNames) MapClientFields(fields []RawField) sync.ClientFields {
	set := indexFields(fields)
	return sync.ClientFields{
		CampaignStartDate: parseDate(set[n.CampaignStartDate]),
		MonthlyRate:       parseNumeric(set[n.ClientMonthlyRate]),
		AgencyValue:       parseNumeric(set[n.AgencyValue]),
		LeadPersonID:      parsePerson(set[n.Lead]),
		SupportPersonIDs:  parsePeople(set[n.Support]),
		SEOLeadName:       parseText(set[n.SEOLead]),
		Niche:             parseText(set[n.Niche]),
		Priority:          parseText(set[n.Priority]),
		CampaignType:      parseText(set[n.CampaignType]),
		ContractLength:    parseText(set[n.ContractLength]),
		ReportStatus:      parseText(set[n.ReportStatus]),
		LastReportDate:    parseDate(set[n.LastReportDate]),
		LastInvoiceDate:   parseDate(set[n.LastInvoiceDate]),
	}
}

// MapSprintFields extracts the typed sprint columns from raw rows.
func (n FieldNames) MapSprintFields(fields []RawField) sync.SprintFields {
	set := indexFields(fields)
	label := strings.TrimSpace(textOf(set[n.SprintLabel]))
	return sync.SprintFields{
		StartDate:    parseDate(set[n.StartDate]),
		EndDate:      parseDate(set[n.EndDate]),
		SprintLabel:  label,
		SprintNumber: SprintNumber(label),
		MonthlyRate:  parseNumeric(set[n.SprintMonthlyRate]),
		KPITarget:    parseNumeric(set[n.KPITarget]),
		KPIAchieved:  parseNumeric(set[n.KPIAchieved]),
	}
}

// textOf prefers the display value, which mirror columns carry instead of raw text.
func textOf(f RawField) string {
	if f.DisplayValue != "" {
		return f.DisplayValue
	}
	return f.RawValue
}

// parseText reads a plain text column. Raw values may arrive JSON-quoted.
func parseText(f RawField) string {
	s := strings.TrimSpace(textOf(f))
	if len(s) >= 2 && s[0] == '"' && gjson.Valid(s) {
		s = strings.TrimSpace(gjson.Parse(s).String())
	}
	return s
}

func parseNumeric(f RawField) *float64 {
	s := strings.Trim(strings.TrimSpace(textOf(f)), `"'`)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDate(f RawField) *time.Time {
	raw := strings.TrimSpace(f.RawValue)
	var s string
	if gjson.Valid(raw) && gjson.Parse(raw).IsObject() {
		s = gjson.Get(raw, "date").String()
	} else {
		s = strings.Trim(raw, `"`)
	}
	if s == "" {
		s = strings.TrimSpace(f.DisplayValue)
	}
	if s == "" {
		return nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}

func parsePerson(f RawField) *int64 {
	if f.RawValue == "" || !gjson.Valid(f.RawValue) {
		return nil
	}
	id := gjson.Get(f.RawValue, "personsAndTeams.0.id")
	if !id.Exists() {
		return nil
	}
	v := id.Int()
	return &v
}

// parsePeople returns every person id in a people column, skipping teams.
func parsePeople(f RawField) []int64 {
	if f.RawValue == "" || !gjson.Valid(f.RawValue) {
		return nil
	}
	var ids []int64
	gjson.Get(f.RawValue, "personsAndTeams").ForEach(func(_, p gjson.Result) bool {
		if p.Get("kind").String() == "person" && p.Get("id").Exists() {
			ids = append(ids, p.Get("id").Int())
		}
		return true
	})
	return ids
}

var (
	quarterPattern = regexp.MustCompile(`(?i)Q(\d+)`)
	sprintPattern  = regexp.MustCompile(`(?i)Sprint\s*#?(\d+)`)
	numberPattern  = regexp.MustCompile(`(\d+)`)
)

// SprintNumber reads the ordinal from a sprint label: "Q2 - Ongoing" and "Sprint #2" both
// yield 2, otherwise the first integer in the label is used.
func SprintNumber(label string) *int {
	if label == "" {
		return nil
	}
	for _, p := range []*regexp.Regexp{quarterPattern, sprintPattern, numberPattern} {
		if m := p.FindStringSubmatch(label); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return &n
			}
		}
	}
	return nil
}
