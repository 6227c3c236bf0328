// ABOUTME: Temporal assignment of time entries to client sprints
// ABOUTME: Places a date inside a sprint or tags why it could not be placed
package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/sprintledger/models"
)

// DefaultLookbackDays is how far before the first sprint pre-launch work still counts.
const DefaultLookbackDays = 14

// Assignment is the outcome of classifying one entry date. A zero Assignment means the
// entry had no client or no date.
type Assignment struct {
	SprintID *uuid.UUID
	Tag      models.Tag
}

// Classifier assigns (client, date) pairs to sprints using a SprintIndex.
type Classifier struct {
	index        *SprintIndex
	lookbackDays int
}

// NewClassifier creates a classifier. A non-positive lookback disables the pre-period
// allowance entirely.
func NewClassifier(index *SprintIndex, lookbackDays int) *Classifier {
	if lookbackDays < 0 {
		lookbackDays = 0
	}
	return &Classifier{index: index, lookbackDays: lookbackDays}
}

// Classify returns which sprint holds date for the client, or the tag explaining why none does.
//
// Containment is always checked before any edge-case policy. Dates before the first sprint
// inside the lookback window are attributed to the first sprint; the window never reaches
// earlier than the client's campaign start date.
func (c *Classifier) Classify(ctx context.Context, clientID *uuid.UUID, date *time.Time) (Assignment, error) {
	if clientID == nil || date == nil {
		return Assignment{}, nil
	}

	cs, err := c.index.Load(ctx, *clientID)
	if err != nil {
		return Assignment{}, err
	}

	d := models.DateOf(*date)

	if s := cs.Covering(d); s != nil {
		return assigned(s.ID, ""), nil
	}

	first, last := cs.First(), cs.Last()
	if first == nil {
		return Assignment{Tag: models.TagNoPeriodsDefined}, nil
	}

	firstStart := models.DateOf(first.StartDate)
	if d.Before(firstStart) {
		windowStart := firstStart.AddDate(0, 0, -c.lookbackDays)
		if cs.CampaignStart != nil && cs.CampaignStart.After(windowStart) {
			windowStart = *cs.CampaignStart
		}
		if !d.Before(windowStart) {
			return assigned(first.ID, models.TagPrePeriodAllowance), nil
		}
		return Assignment{Tag: models.TagBeforeCampaign}, nil
	}

	if d.After(models.DateOf(last.EndDate)) {
		return Assignment{Tag: models.TagPostPeriodWork}, nil
	}

	return Assignment{Tag: models.TagGapBetweenPeriods}, nil
}

func assigned(id uuid.UUID, tag models.Tag) Assignment {
	return Assignment{SprintID: &id, Tag: tag}
}
