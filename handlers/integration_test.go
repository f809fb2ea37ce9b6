// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/danielhkuo/school-vote/feed"
	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/router"
	"github.com/danielhkuo/school-vote/scheduler"
	"github.com/danielhkuo/school-vote/store"
	"github.com/danielhkuo/school-vote/testutil"
	"github.com/danielhkuo/school-vote/voting"
)

// TestElectionDay walks through a full election over HTTP: staff log in,
// register candidates and hand out tokens, voters vote, staff correct a
// mistake and read the results.
func TestElectionDay(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	log := zaptest.NewLogger(t)
	st := store.New(conn, log)
	hub := feed.NewHub(log)
	svc := voting.NewService(st, hub, log, 0)

	mux := router.NewRouter(router.Deps{
		Config:    testutil.GetTestConfig(),
		Log:       log,
		DB:        st,
		Voting:    svc,
		Admins:    st,
		Snapshots: scheduler.NewSnapshotter(svc, st, log),
		Feed:      hub,
	})
	testutil.CreateTestAdmin(t, conn, "panitia", "correct-horse", models.RoleAdmin)

	do := func(method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
		t.Helper()
		var headers map[string]string
		if bearer != "" {
			headers = map[string]string{"Authorization": bearer}
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
		return w
	}

	// Step 1: log in
	w := do("POST", "/admin/login", models.LoginRequest{Username: "panitia", Password: "correct-horse"}, "")
	testutil.AssertStatus(t, w, http.StatusOK)
	var login models.LoginResponse
	testutil.AssertJSON(t, w, &login)
	bearer := "Bearer " + login.AccessToken

	// Step 2: register candidates
	candidateIDs := map[string]string{}
	for _, name := range []string{"Alya", "Bima"} {
		w := do("POST", "/admin/candidates", models.CandidateRequest{Name: name, Vision: "v", Mission: "m"}, bearer)
		testutil.AssertStatus(t, w, http.StatusCreated)
		var c models.Candidate
		testutil.AssertJSON(t, w, &c)
		candidateIDs[name] = c.ID
	}

	// Step 3: issue tokens
	issue := func(req models.IssueTokensRequest) []models.Token {
		t.Helper()
		w := do("POST", "/admin/tokens", req, bearer)
		testutil.AssertStatus(t, w, http.StatusCreated)
		var resp models.IssueTokensResponse
		testutil.AssertJSON(t, w, &resp)
		return resp.Tokens
	}
	students := issue(models.IssueTokensRequest{Count: 3, Type: models.TokenTypeStudent, Class: "9A"})
	teachers := issue(models.IssueTokensRequest{Count: 1, Type: models.TokenTypeTeacher, Teacher: "Bu Sari"})

	// Step 4: vote. The public endpoints need no session.
	vote := func(code, candidate string) *httptest.ResponseRecorder {
		return do("POST", "/vote", models.CastVoteRequest{Code: code, CandidateID: candidateIDs[candidate]}, "")
	}
	testutil.AssertStatus(t, vote(students[0].Code, "Alya"), http.StatusCreated)
	testutil.AssertStatus(t, vote(students[1].Code, "Alya"), http.StatusCreated)
	testutil.AssertStatus(t, vote(teachers[0].Code, "Bima"), http.StatusCreated)
	testutil.AssertStatus(t, vote(students[0].Code, "Bima"), http.StatusConflict)

	// Step 5: the ballot was cast for the wrong candidate; reset the token and vote again
	w = do("POST", "/admin/tokens/"+students[1].ID+"/reset", nil, bearer)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertStatus(t, vote(students[1].Code, "Bima"), http.StatusCreated)

	// Step 6: results
	w = do("GET", "/admin/results", nil, bearer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var results struct {
		Rankings []models.CandidateResult `json:"rankings"`
	}
	testutil.AssertJSON(t, w, &results)
	if len(results.Rankings) != 2 {
		t.Fatalf("Expected 2 rankings, got %d", len(results.Rankings))
	}
	if top := results.Rankings[0]; top.Candidate.Name != "Bima" || top.TotalPoints != 3 {
		t.Errorf("Expected Bima leading with 3 points, got %+v", top)
	}
	if second := results.Rankings[1]; second.TotalPoints != 1 || second.Rank != 2 {
		t.Errorf("Expected Alya second with 1 point, got %+v", second)
	}

	w = do("GET", "/admin/stats", nil, bearer)
	var stats models.Stats
	testutil.AssertJSON(t, w, &stats)
	if stats.TotalTokens != 4 || stats.UsedTokens != 3 || stats.ParticipationPct != 75 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	// Step 7: start over
	w = do("POST", "/admin/votes/reset", nil, bearer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var summary models.ResetSummary
	testutil.AssertJSON(t, w, &summary)
	if summary.DeletedVotes != 3 || summary.ResetTokens != 3 {
		t.Errorf("Unexpected reset summary: %+v", summary)
	}
	testutil.AssertStatus(t, vote(students[0].Code, "Alya"), http.StatusCreated)
}
