package requirement_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/requirement"
	testutil "github.com/janisrealty/janis/tests"
)

func TestInput_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()
	f := func(v float64) *float64 { return &v }
	floors := func(v int) *int { return &v }

	tests := []struct {
		name      string
		in        requirement.Input
		wantField string
		wantErr   bool
	}{
		{name: "valid approx", in: requirement.Input{ClientName: "ana ruiz", BudgetApprox: f(150000)}},
		{name: "valid range", in: requirement.Input{ClientName: "Ana", BudgetType: " RANGE ", BudgetMin: f(100), BudgetMax: f(100)}},
		{name: "no client", in: requirement.Input{}, wantErr: true},
		{name: "bad budget type", in: requirement.Input{ClientName: "Ana", BudgetType: "exact"}, wantErr: true},
		{name: "negative budget", in: requirement.Input{ClientName: "Ana", BudgetApprox: f(-1)}, wantErr: true},
		{name: "too many floors", in: requirement.Input{ClientName: "Ana", NumberOfFloors: floors(6)}, wantErr: true},
		{name: "bad elevator", in: requirement.Input{ClientName: "Ana", Elevator: "maybe"}, wantErr: true},
		{
			name:      "inverted budget",
			in:        requirement.Input{ClientName: "Ana", BudgetType: "range", BudgetMin: f(200), BudgetMax: f(100)},
			wantField: "budget_max",
		},
		{
			name:      "inverted area",
			in:        requirement.Input{ClientName: "Ana", AreaType: "range", LandAreaMin: f(90), LandAreaMax: f(80)},
			wantField: "land_area_max",
		},
		{name: "approx ignores bounds", in: requirement.Input{ClientName: "Ana", AreaType: "approx", LandAreaMin: f(90), LandAreaMax: f(80)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(validate)
			switch {
			case tt.wantField != "":
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok, err)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}

	in := requirement.Input{ClientName: " ana  ruiz ", Elevator: "YES"}
	require.NoError(t, in.Validate(validate))
	assert.Equal(t, "Ana Ruiz", in.ClientName)
	assert.Equal(t, "yes", in.Elevator)
}

func TestService(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	var events []core.RequirementChanged
	require.NoError(t, env.Bus.Subscribe(core.SubjectRequirementChanged, func(data []byte) {
		var evt core.RequirementChanged
		require.NoError(t, json.Unmarshal(data, &evt))
		events = append(events, evt)
	}))

	ana, agent := int64(1), int64(2)
	first, err := env.Requirements.Create(ctx, requirement.Input{
		ClientName: "Carla Soto",
		Links:      &requirement.Links{DistrictIDs: []int64{10, 11}, TagIDs: []int64{3}},
	}, &ana)
	require.NoError(t, err)
	assert.Equal(t, requirement.TypeApprox, first.BudgetType)
	assert.Equal(t, requirement.TypeApprox, first.AreaType)
	assert.Equal(t, []int64{10, 11}, first.DistrictIDs)
	require.Len(t, events, 1)
	assert.Equal(t, core.RequirementChanged{RequirementID: first.ID, CreatedByID: &ana}, events[0])

	time.Sleep(2 * time.Millisecond)
	second, err := env.Requirements.Create(ctx, requirement.Input{ClientName: "Jorge Vera", AssignedAgentID: &agent}, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		filter  requirement.QueryFilter
		wantIDs []int64
	}{
		{name: "newest first", wantIDs: []int64{second.ID, first.ID}},
		{name: "search", filter: requirement.QueryFilter{Search: " carla "}, wantIDs: []int64{first.ID}},
		{name: "created by", filter: requirement.QueryFilter{CreatedByID: &ana}, wantIDs: []int64{first.ID}},
		{name: "assigned agent", filter: requirement.QueryFilter{AssignedAgentID: &agent}, wantIDs: []int64{second.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := env.Requirements.Query(ctx, tt.filter)
			require.NoError(t, err)
			var ids []int64
			for _, r := range reqs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	t.Run("scalar updates keep the links", func(t *testing.T) {
		events = nil
		upd, err := env.Requirements.Update(ctx, first, requirement.Input{ClientName: "Carla Soto Díaz"})
		require.NoError(t, err)
		assert.Equal(t, "Carla Soto Díaz", upd.ClientName)
		assert.Equal(t, []int64{10, 11}, upd.DistrictIDs)
		require.Len(t, events, 1)
		assert.False(t, events[0].M2M)
	})

	t.Run("link updates", func(t *testing.T) {
		events = nil
		r, err := env.Requirements.Get(ctx, first.ID)
		require.NoError(t, err)
		r, err = env.Requirements.SetLinks(ctx, r, requirement.Links{ZoningIDs: []int64{5}})
		require.NoError(t, err)
		assert.Empty(t, r.DistrictIDs)
		assert.Equal(t, []int64{5}, r.ZoningIDs)
		require.Len(t, events, 1)
		assert.True(t, events[0].M2M)

		stored, err := env.Requirements.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, r.Links(), stored.Links())

		_, err = env.Requirements.SetLinks(ctx, requirement.Requirement{ID: 999}, requirement.Links{})
		assert.Equal(t, requirement.ErrNotFound, err)
	})

	require.NoError(t, env.Requirements.Delete(ctx, second.ID))
	all, err := env.Requirements.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, requirement.ErrNotFound, env.Requirements.Delete(ctx, second.ID))
}
