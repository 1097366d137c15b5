package campaign

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"medassist/model"
)

func day(s string) *string { return &s }

func TestDeriveStatus(t *testing.T) {
	const today = "2025-06-15"
	cases := []struct {
		name       string
		start, end *string
		current    model.CampaignStatus
		want       model.CampaignStatus
	}{
		{"no dates", nil, nil, model.StatusActive, model.StatusDraft},
		{"empty start", day(""), day("2025-07-01"), model.StatusDraft, model.StatusDraft},
		{"starts tomorrow", day("2025-06-16"), nil, model.StatusDraft, model.StatusPlanned},
		{"starts today", day("2025-06-15"), day("2025-06-20"), model.StatusPlanned, model.StatusActive},
		{"open ended", day("2025-01-01"), nil, model.StatusPlanned, model.StatusActive},
		{"ends today", day("2025-06-01"), day("2025-06-15"), model.StatusActive, model.StatusActive},
		{"ended yesterday", day("2025-06-01"), day("2025-06-14"), model.StatusActive, model.StatusFinished},
		{"finished campaign moved forward", day("2025-07-01"), day("2025-07-10"), model.StatusFinished, model.StatusPlanned},
		{"cancelled is sticky", day("2025-06-01"), day("2025-06-14"), model.StatusCancelled, model.StatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.start, tc.end, tc.current, today))
		})
	}
}

func TestTodayUsesLocation(t *testing.T) {
	now := time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("UTC+9", 9*3600)
	assert.Equal(t, "2025-06-15", Today(now, time.UTC))
	assert.Equal(t, "2025-06-16", Today(now, tokyo))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
