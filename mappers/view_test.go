package mappers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/model"
)

func TestAge(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	birth := func(s string) *string { return &s }

	cases := []struct {
		name  string
		birth *string
		want  *int
	}{
		{"missing", nil, nil},
		{"garbage", birth("15/06/1990"), nil},
		{"birthday today", birth("1990-06-15"), intPtr(35)},
		{"birthday tomorrow", birth("1990-06-16"), intPtr(34)},
		{"future", birth("2030-01-01"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Age(tc.birth, today))
		})
	}
}

func intPtr(i int) *int { return &i }

func TestEveryEnumHasALabel(t *testing.T) {
	for _, s := range model.CampaignStatuses {
		assert.NotEmpty(t, CampaignStatusLabel(s), s)
	}
	for _, d := range model.Decisions {
		assert.NotEmpty(t, DecisionLabel(d), d)
	}
	for _, s := range model.CallStatuses {
		assert.NotEmpty(t, CallStatusLabel(s), s)
	}
}

func TestToCampaignView(t *testing.T) {
	row := model.CampaignRow{Campaign: model.Campaign{ID: 3, Statut: model.StatusCancelled}}
	v := ToCampaignView(row)
	assert.Equal(t, "Annulée", v.StatutLibelle)
	assert.Equal(t, "danger", v.StatutCouleur)

	views := ToCampaignViews(nil)
	require.NotNil(t, views)
	assert.Empty(t, views)
}
