package agenda_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/agenda"
	testutil "github.com/janisrealty/janis/tests"
)

func TestEventInput_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name      string
		in        agenda.EventInput
		wantField string
	}{
		{name: "valid", in: agenda.EventInput{Title: " Visita ", Date: "2026-05-04", StartTime: "09:00", EndTime: "10:30"}},
		{name: "no title", in: agenda.EventInput{Date: "2026-05-04", StartTime: "09:00", EndTime: "10:30"}, wantField: "title"},
		{name: "bad date", in: agenda.EventInput{Title: "x", Date: "04/05/2026", StartTime: "09:00", EndTime: "10:30"}, wantField: "date"},
		{name: "bad clock", in: agenda.EventInput{Title: "x", Date: "2026-05-04", StartTime: "9am", EndTime: "10:30"}, wantField: "start_time"},
		{name: "end before start", in: agenda.EventInput{Title: "x", Date: "2026-05-04", StartTime: "11:00", EndTime: "10:30"}, wantField: "end_time"},
		{name: "same time", in: agenda.EventInput{Title: "x", Date: "2026-05-04", StartTime: "10:30", EndTime: "10:30"}, wantField: "end_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(validate)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantField == "end_time" {
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok)
				assert.Equal(t, "end_time", verr.Fields[0].Field)
			}
		})
	}
}

func TestService(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	agent := int64(7)

	for _, in := range []agenda.EventInput{
		{Title: "Visita", Date: "2026-05-04", StartTime: "15:00", EndTime: "16:00", AssignedAgentID: &agent},
		{Title: "Firma", Date: "2026-05-04", StartTime: "09:00", EndTime: "10:00"},
		{Title: "Tasación", Date: "2026-06-01", StartTime: "09:00", EndTime: "10:00", AssignedAgentID: &agent},
	} {
		_, err := env.Agenda.Create(ctx, in, nil)
		require.NoError(t, err)
	}

	tests := []struct {
		name       string
		filter     agenda.QueryFilter
		wantTitles []string
	}{
		{name: "all sorted", wantTitles: []string{"Firma", "Visita", "Tasación"}},
		{name: "by agent", filter: agenda.QueryFilter{AssignedAgentID: &agent}, wantTitles: []string{"Visita", "Tasación"}},
		{name: "date range", filter: agenda.QueryFilter{From: "2026-05-01", To: "2026-05-31"}, wantTitles: []string{"Firma", "Visita"}},
		{name: "from only", filter: agenda.QueryFilter{From: "2026-05-05"}, wantTitles: []string{"Tasación"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := env.Agenda.Query(ctx, tt.filter)
			require.NoError(t, err)
			titles := make([]string, len(events))
			for i, e := range events {
				titles[i] = e.Title
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}

	_, err := env.Agenda.Query(ctx, agenda.QueryFilter{To: "mañana"})
	assert.IsType(t, &core.ValidationError{}, err)

	t.Run("update and delete", func(t *testing.T) {
		events, err := env.Agenda.Query(ctx, agenda.QueryFilter{})
		require.NoError(t, err)
		e := events[0]
		e, err = env.Agenda.Update(ctx, e, agenda.EventInput{Title: "Firma notarial", Date: "2026-05-05", StartTime: "09:00", EndTime: "09:30"})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC), e.Date)

		require.NoError(t, env.Agenda.Delete(ctx, e.ID))
		_, err = env.Agenda.Get(ctx, e.ID)
		assert.Equal(t, agenda.ErrNotFound, err)
	})
}

func TestService_AgencyConfig(t *testing.T) {
	env := testutil.NewEnv(t)
	validate, _ := testutil.NewValidator()
	ctx := context.Background()

	ac, err := env.Agenda.AgencyConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, agenda.AgencyConfig{}, ac)

	bad := agenda.AgencyConfig{RUC: "123"}
	assert.Error(t, bad.Validate(validate))

	ac = agenda.AgencyConfig{TradeName: " Janis ", RUC: "20123456789", Email: "INFO@Janis.pe", District: "san isidro"}
	require.NoError(t, ac.Validate(validate))
	saved, err := env.Agenda.SaveAgencyConfig(ctx, ac)
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := env.Agenda.AgencyConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Janis", got.TradeName)
	assert.Equal(t, "info@janis.pe", got.Email)
	assert.Equal(t, "San Isidro", got.District)
}
