/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Every embedded file parses and has a unique id
	- Users are created with working session tokens
	- Planner rows and wins are replayed through the service
	- Circles are joined through invites

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"context"
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Parse(t *testing.T) {
	list, err := Scenarios()
	require.NoError(t, err)
	require.NotEmpty(t, list)

	seen := map[string]bool{}
	for _, sc := range list {
		assert.False(t, seen[sc.ID], "duplicate scenario id %s", sc.ID)
		seen[sc.ID] = true
		assert.NotEmpty(t, sc.Name, sc.ID)
		assert.NotEmpty(t, sc.Description, sc.ID)
	}
	assert.True(t, seen["solo-planner"])
	assert.True(t, seen["accountability-circle"])
}

func TestParseScenarios_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing id", "name: Nameless\n"},
		{"bad yaml", "id: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"s/a.yaml": {Data: []byte(tt.data)}}
			_, err := parseScenarios(fsys, "s")
			assert.Error(t, err)
		})
	}
}

func TestScenario_SoloPlanner(t *testing.T) {
	// GIVEN: The solo planner scenario
	// WHEN: Seeding it
	// THEN: Alice has goals, habits, routines, tasks and wins

	handler := setupTestHandler(t)
	ctx := context.Background()

	resp, err := handler.Seed(ctx, "solo-planner")
	require.NoError(t, err)
	require.Contains(t, resp.Sessions, "alice")

	user, err := handler.Service.Authenticate(ctx, resp.Sessions["alice"])
	require.NoError(t, err)
	assert.Equal(t, "Alice Johnson", user.DisplayName)

	goals, err := handler.Service.ListGoals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	for _, g := range goals {
		if g.Title == "Run a half marathon" {
			assert.Equal(t, "33", g.Progress().String())
		}
	}

	habits, err := handler.Service.ListHabits(ctx, "alice", "2024-03")
	require.NoError(t, err)
	assert.Len(t, habits, 2)

	routines, err := handler.Service.ListRoutines(ctx, "alice")
	require.NoError(t, err)
	for _, r := range routines {
		assert.NotEmpty(t, r.Steps, string(r.Type))
	}

	day, err := handler.Service.LoadDay(ctx, "alice", "2024-03-06")
	require.NoError(t, err)
	require.NotNil(t, day.Priority)
	assert.Equal(t, "Ship the quarterly report", day.Priority.Title)

	week, err := handler.Service.LoadWeek(ctx, "alice", "2024-03-06")
	require.NoError(t, err)
	require.NotNil(t, week.LastReview)
	assert.Equal(t, "Ran three times", week.LastReview.Achievements)

	// Manual win, milestone win and the done todo.
	wins, err := handler.Service.ListWins(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Len(t, wins, 3)
}

func TestScenario_AccountabilityCircle(t *testing.T) {
	handler := setupTestHandler(t)
	ctx := context.Background()

	resp, err := handler.Seed(ctx, "accountability-circle")
	require.NoError(t, err)
	assert.Len(t, resp.Sessions, 3)

	circles, err := handler.Service.ListCircles(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, circles, 1)
	assert.Equal(t, "Morning Crew", circles[0].Circle.Name)

	members, err := handler.Service.ListMembers(ctx, "carol", circles[0].Circle.ID)
	require.NoError(t, err)
	roles := map[string]string{}
	for _, m := range members {
		roles[m.UserID] = string(m.Role)
	}
	assert.Equal(t, map[string]string{"alice": "owner", "bob": "member", "carol": "owner"}, roles)

	wins, err := handler.Service.CircleWins(ctx, "bob", circles[0].Circle.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, wins)
}

func TestScenario_ReloadResets(t *testing.T) {
	handler := setupTestHandler(t)
	ctx := context.Background()

	first, err := handler.Seed(ctx, "accountability-circle")
	require.NoError(t, err)
	_, err = handler.Seed(ctx, "solo-planner")
	require.NoError(t, err)

	_, err = handler.Service.Authenticate(ctx, first.Sessions["bob"])
	assert.Error(t, err)
	circles, err := handler.Service.ListCircles(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, circles)
}

func TestScenarioEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/scenarios/current", "", nil)
	assert.Equal(t, "null", trimmed(rec))

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "solo-planner"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loaded := decodeBody[LoadScenarioResponse](t, rec)

	// The returned token opens the API.
	rec = s.do(t, http.MethodGet, "/api/me", loaded.Sessions["alice"], nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	current := decodeBody[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios/current", "", nil))
	assert.Equal(t, "solo-planner", current.ID)

	list := decodeBody[[]ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios", "", nil))
	assert.Len(t, list, 2)
}
