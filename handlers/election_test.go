// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/scheduler"
	"github.com/danielhkuo/school-vote/testutil"
)

func newElectionHandler(t *testing.T, env testEnv) *ElectionHandler {
	t.Helper()
	log := zaptest.NewLogger(t)
	return NewElectionHandler(env.svc, scheduler.NewSnapshotter(env.svc, env.store, log), log)
}

// withID sets the {id} wildcard the mux would normally fill in
func withID(r *http.Request, id string) *http.Request {
	r.SetPathValue("id", id)
	return r
}

func intPtr(n int) *int { return &n }

func TestCandidateLifecycle(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)

	req := testutil.MakeRequest("POST", "/admin/candidates", models.CandidateRequest{
		Name: "Alya", Vision: "Cleaner canteen", Mission: "Weekly clean-up",
	}, nil)
	w := httptest.NewRecorder()
	handler.CreateCandidate(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.Candidate
	testutil.AssertJSON(t, w, &created)
	if created.ID == "" || created.Name != "Alya" {
		t.Fatalf("Unexpected candidate: %+v", created)
	}

	t.Run("missing vision", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/admin/candidates", models.CandidateRequest{Name: "Bima", Mission: "x"}, nil)
		w := httptest.NewRecorder()
		handler.CreateCandidate(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("update", func(t *testing.T) {
		req := testutil.MakeRequest("PUT", "/admin/candidates/"+created.ID, models.CandidateRequest{
			Name: "Alya Putri", Vision: "Cleaner canteen", Mission: "Weekly clean-up", Class: "9B",
		}, nil)
		w := httptest.NewRecorder()
		handler.UpdateCandidate(w, withID(req, created.ID))
		testutil.AssertStatus(t, w, http.StatusOK)

		var updated models.Candidate
		testutil.AssertJSON(t, w, &updated)
		if updated.Name != "Alya Putri" || updated.Class != "9B" {
			t.Errorf("Update not applied: %+v", updated)
		}
	})

	t.Run("update unknown", func(t *testing.T) {
		req := testutil.MakeRequest("PUT", "/admin/candidates/nope", models.CandidateRequest{
			Name: "X", Vision: "v", Mission: "m",
		}, nil)
		w := httptest.NewRecorder()
		handler.UpdateCandidate(w, withID(req, "nope"))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("delete with votes", func(t *testing.T) {
		tokenID := testutil.CreateTestToken(t, env.db, "VOTED", models.TokenTypeStudent, "7A")
		voted := testutil.CreateTestCandidate(t, env.db, "Citra")
		testutil.CreateTestVote(t, env.db, voted, tokenID, 1)

		w := httptest.NewRecorder()
		handler.DeleteCandidate(w, withID(httptest.NewRequest("DELETE", "/admin/candidates/"+voted, nil), voted))
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.DeleteCandidate(w, withID(httptest.NewRequest("DELETE", "/admin/candidates/"+created.ID, nil), created.ID))
		testutil.AssertStatus(t, w, http.StatusNoContent)

		w = httptest.NewRecorder()
		handler.DeleteCandidate(w, withID(httptest.NewRequest("DELETE", "/admin/candidates/"+created.ID, nil), created.ID))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestOverrideTotal(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)

	candidateID := testutil.CreateTestCandidate(t, env.db, "Alya")
	emptyID := testutil.CreateTestCandidate(t, env.db, "Bima")
	firstVote := testutil.CreateTestVote(t, env.db, candidateID,
		testutil.CreateTestToken(t, env.db, "AAAAA", models.TokenTypeStudent, "7A"), 1)
	testutil.CreateTestVote(t, env.db, candidateID,
		testutil.CreateTestToken(t, env.db, "BBBBB", models.TokenTypeTeacher, ""), 2)

	tests := []struct {
		name           string
		candidateID    string
		body           models.OverrideTotalRequest
		expectedStatus int
		expectedKind   models.ErrorKind
	}{
		{"raise total", candidateID, models.OverrideTotalRequest{TotalPoints: intPtr(10)}, http.StatusOK, ""},
		{"negative total", candidateID, models.OverrideTotalRequest{TotalPoints: intPtr(-1)}, http.StatusBadRequest, models.KindNegativePoints},
		{"missing total", candidateID, models.OverrideTotalRequest{}, http.StatusBadRequest, models.KindInvalidRequest},
		{"below other votes", candidateID, models.OverrideTotalRequest{TotalPoints: intPtr(1)}, http.StatusBadRequest, models.KindNegativePoints},
		{"no votes", emptyID, models.OverrideTotalRequest{TotalPoints: intPtr(5)}, http.StatusConflict, models.KindNoVotesToAdjust},
		{"unknown candidate", "nobody", models.OverrideTotalRequest{TotalPoints: intPtr(5)}, http.StatusNotFound, models.KindCandidateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("PUT", "/admin/candidates/"+tt.candidateID+"/total", tt.body, nil)
			w := httptest.NewRecorder()

			handler.OverrideTotal(w, withID(req, tt.candidateID))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus == http.StatusOK {
				var vote models.Vote
				testutil.AssertJSON(t, w, &vote)
				// 1 + 2 = 3 becomes 10 by moving the earliest vote from 1 to 8
				if vote.ID != firstVote || vote.Points != 8 {
					t.Errorf("Expected vote %s with 8 points, got %+v", firstVote, vote)
				}
				return
			}

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.ErrorKind != tt.expectedKind {
				t.Errorf("Expected error_kind %s, got %s", tt.expectedKind, resp.ErrorKind)
			}
		})
	}
}

func TestUpdateVote(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)

	candidateID := testutil.CreateTestCandidate(t, env.db, "Alya")
	voteID := testutil.CreateTestVote(t, env.db, candidateID,
		testutil.CreateTestToken(t, env.db, "AAAAA", models.TokenTypeStudent, "7A"), 1)

	tests := []struct {
		name           string
		voteID         string
		body           models.UpdateVoteRequest
		expectedStatus int
		expectedKind   models.ErrorKind
	}{
		{"set to zero", voteID, models.UpdateVoteRequest{Points: intPtr(0)}, http.StatusOK, ""},
		{"negative", voteID, models.UpdateVoteRequest{Points: intPtr(-3)}, http.StatusBadRequest, models.KindNegativePoints},
		{"missing points", voteID, models.UpdateVoteRequest{}, http.StatusBadRequest, models.KindInvalidRequest},
		{"unknown vote", "nope", models.UpdateVoteRequest{Points: intPtr(2)}, http.StatusNotFound, models.KindVoteNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("PUT", "/admin/votes/"+tt.voteID, tt.body, nil)
			w := httptest.NewRecorder()

			handler.UpdateVote(w, withID(req, tt.voteID))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus == http.StatusOK {
				var vote models.Vote
				testutil.AssertJSON(t, w, &vote)
				if vote.Points != 0 || vote.UpdatedAt == nil {
					t.Errorf("Expected edited vote with 0 points, got %+v", vote)
				}
				return
			}

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.ErrorKind != tt.expectedKind {
				t.Errorf("Expected error_kind %s, got %s", tt.expectedKind, resp.ErrorKind)
			}
		})
	}
}

func TestTokenAdministration(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)

	req := testutil.MakeRequest("POST", "/admin/tokens", models.IssueTokensRequest{
		Count: 3, Type: models.TokenTypeStudent, Class: "7A",
	}, nil)
	w := httptest.NewRecorder()
	handler.IssueTokens(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var issued models.IssueTokensResponse
	testutil.AssertJSON(t, w, &issued)
	if len(issued.Tokens) != 3 {
		t.Fatalf("Expected 3 tokens, got %d", len(issued.Tokens))
	}
	for _, tok := range issued.Tokens {
		if len(tok.Code) != 5 || tok.Class != "7A" || tok.IsUsed {
			t.Errorf("Unexpected issued token: %+v", tok)
		}
	}

	t.Run("student batch without class", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/admin/tokens", models.IssueTokensRequest{Count: 1, Type: models.TokenTypeStudent}, nil)
		w := httptest.NewRecorder()
		handler.IssueTokens(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("list by class", func(t *testing.T) {
		testutil.CreateTestToken(t, env.db, "TCHR1", models.TokenTypeTeacher, "")

		w := httptest.NewRecorder()
		handler.ListTokens(w, httptest.NewRequest("GET", "/admin/tokens?tab=7A", nil))
		var tokens []models.Token
		testutil.AssertJSON(t, w, &tokens)
		if len(tokens) != 3 {
			t.Errorf("Expected 3 tokens in 7A, got %d", len(tokens))
		}

		w = httptest.NewRecorder()
		handler.ListTokens(w, httptest.NewRequest("GET", "/admin/tokens?tab=teachers", nil))
		testutil.AssertJSON(t, w, &tokens)
		if len(tokens) != 1 || tokens[0].Type != models.TokenTypeTeacher {
			t.Errorf("Expected the single teacher token, got %+v", tokens)
		}
	})

	t.Run("classes", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListClasses(w, httptest.NewRequest("GET", "/admin/tokens/classes", nil))
		var classes []string
		testutil.AssertJSON(t, w, &classes)
		if len(classes) != 1 || classes[0] != "7A" {
			t.Errorf("Expected [7A], got %v", classes)
		}
	})

	t.Run("reset unused token", func(t *testing.T) {
		id := issued.Tokens[0].ID
		w := httptest.NewRecorder()
		handler.ResetToken(w, withID(httptest.NewRequest("POST", "/admin/tokens/"+id+"/reset", nil), id))
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("reset used token", func(t *testing.T) {
		tok := issued.Tokens[1]
		candidateID := testutil.CreateTestCandidate(t, env.db, "Alya")
		testutil.CreateTestVote(t, env.db, candidateID, tok.ID, 1)

		w := httptest.NewRecorder()
		handler.ResetToken(w, withID(httptest.NewRequest("POST", "/admin/tokens/"+tok.ID+"/reset", nil), tok.ID))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ResetTokenResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Token.IsUsed || resp.DeletedVotes != 1 {
			t.Errorf("Expected unused token and 1 deleted vote, got %+v", resp)
		}
	})

	t.Run("delete token", func(t *testing.T) {
		id := issued.Tokens[2].ID
		w := httptest.NewRecorder()
		handler.DeleteToken(w, withID(httptest.NewRequest("DELETE", "/admin/tokens/"+id, nil), id))
		testutil.AssertStatus(t, w, http.StatusNoContent)

		w = httptest.NewRecorder()
		handler.DeleteToken(w, withID(httptest.NewRequest("DELETE", "/admin/tokens/"+id, nil), id))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestExportTokens(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)

	candidateID := testutil.CreateTestCandidate(t, env.db, "Alya")
	used := testutil.CreateTestToken(t, env.db, "USED1", models.TokenTypeStudent, "7A")
	testutil.CreateTestToken(t, env.db, "FREE1", models.TokenTypeStudent, "7A")
	testutil.CreateTestToken(t, env.db, "TCHR1", models.TokenTypeTeacher, "")
	testutil.CreateTestVote(t, env.db, candidateID, used, 1)

	w := httptest.NewRecorder()
	handler.ExportTokens(w, httptest.NewRequest("GET", "/admin/tokens/export.csv?tab=7A", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected text/csv, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "tokens-7A.csv") {
		t.Errorf("Unexpected Content-Disposition: %s", cd)
	}

	rows, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("Export is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d rows", len(rows))
	}
	if strings.Join(rows[0], ",") != "code,type,class,teacher,status" {
		t.Errorf("Unexpected header: %v", rows[0])
	}

	status := map[string]string{}
	for _, row := range rows[1:] {
		status[row[0]] = row[4]
	}
	if status["USED1"] != "used" || status["FREE1"] != "available" {
		t.Errorf("Unexpected statuses: %v", status)
	}
}

func TestExportTokens_FilenameSanitized(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)

	w := httptest.NewRecorder()
	handler.ExportTokens(w, httptest.NewRequest("GET", "/admin/tokens/export.csv?tab=..%2F7%20A", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	cd := w.Header().Get("Content-Disposition")
	if strings.Contains(cd, "/") || strings.Contains(cd, "..") {
		t.Errorf("Filename not sanitized: %s", cd)
	}
}

func TestResultsEndpoints(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)

	alya := testutil.CreateTestCandidate(t, env.db, "Alya")
	bima := testutil.CreateTestCandidate(t, env.db, "Bima")
	testutil.CreateTestVote(t, env.db, alya, testutil.CreateTestToken(t, env.db, "AAAAA", models.TokenTypeStudent, "7A"), 1)
	testutil.CreateTestVote(t, env.db, bima, testutil.CreateTestToken(t, env.db, "BBBBB", models.TokenTypeTeacher, ""), 2)
	testutil.CreateTestToken(t, env.db, "CCCCC", models.TokenTypeStudent, "7A")
	testutil.CreateTestToken(t, env.db, "DDDDD", models.TokenTypeStudent, "7B")

	t.Run("results", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetResults(w, httptest.NewRequest("GET", "/admin/results", nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp resultsResponse
		testutil.AssertJSON(t, w, &resp)
		if len(resp.Rankings) != 2 {
			t.Fatalf("Expected 2 rankings, got %d", len(resp.Rankings))
		}
		top := resp.Rankings[0]
		if top.Candidate.Name != "Bima" || top.TotalPoints != 2 || top.Rank != 1 || top.TeacherVotes != 1 {
			t.Errorf("Unexpected leader: %+v", top)
		}
		if resp.InputsHash == "" {
			t.Error("Expected a non-empty inputs hash")
		}
	})

	t.Run("chart", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetChart(w, httptest.NewRequest("GET", "/admin/results/chart", nil))
		var chart []models.ChartSlice
		testutil.AssertJSON(t, w, &chart)
		if len(chart) != 2 || chart[0].Color == "" {
			t.Errorf("Unexpected chart: %+v", chart)
		}
	})

	t.Run("stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetStats(w, httptest.NewRequest("GET", "/admin/stats", nil))
		var stats models.Stats
		testutil.AssertJSON(t, w, &stats)
		if stats.TotalTokens != 4 || stats.UsedTokens != 2 || stats.ParticipationPct != 50 || stats.TotalPoints != 3 {
			t.Errorf("Unexpected stats: %+v", stats)
		}
	})

	t.Run("summary", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetSummary(w, httptest.NewRequest("GET", "/admin/results/summary.txt", nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("Expected text/plain, got %s", ct)
		}
		body := w.Body.String()
		for _, want := range []string{"Turnout: 50% (2 of 4 tokens used)", "1st", "2nd", "Bima"} {
			if !strings.Contains(body, want) {
				t.Errorf("Summary missing %q:\n%s", want, body)
			}
		}
	})
}

func TestRenderSummary(t *testing.T) {
	at := time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC)

	t.Run("large figures", func(t *testing.T) {
		out := renderSummary([]models.CandidateResult{{
			Candidate:    models.Candidate{Name: "Alya"},
			TotalPoints:  1250,
			TotalVotes:   1100,
			StudentVotes: 950,
			TeacherVotes: 150,
			Rank:         1,
		}}, models.Stats{TotalTokens: 2000, UsedTokens: 1100, ParticipationPct: 55}, at)

		for _, want := range []string{"as of 2025-07-01 10:30 UTC", "2,000 tokens", "1,250 points", "1,100 votes"} {
			if !strings.Contains(out, want) {
				t.Errorf("Summary missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		out := renderSummary(nil, models.Stats{}, at)
		if !strings.Contains(out, "No candidates registered.") {
			t.Errorf("Expected empty notice:\n%s", out)
		}
	})
}

func TestSnapshotEndpoints(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)
	testutil.CreateTestCandidate(t, env.db, "Alya")

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.TakeSnapshot(w, httptest.NewRequest("POST", "/admin/snapshots", nil))
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp snapshotResponse
		testutil.AssertJSON(t, w, &resp)
		// Manual snapshots are always written
		if !resp.Created || len(resp.Snapshot.Rankings) != 1 {
			t.Errorf("Unexpected snapshot response: %+v", resp)
		}
	}

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedLen    int
	}{
		{"default limit", "", http.StatusOK, 2},
		{"limit one", "?limit=1", http.StatusOK, 1},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0},
		{"not a number", "?limit=ten", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ListSnapshots(w, httptest.NewRequest("GET", "/admin/snapshots"+tt.query, nil))
			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var snaps []models.ResultSnapshot
			testutil.AssertJSON(t, w, &snaps)
			if len(snaps) != tt.expectedLen {
				t.Errorf("Expected %d snapshots, got %d", tt.expectedLen, len(snaps))
			}
		})
	}
}

func TestResetAll(t *testing.T) {
	env := setupEnv(t)
	handler := newElectionHandler(t, env)

	candidateID := testutil.CreateTestCandidate(t, env.db, "Alya")
	testutil.CreateTestVote(t, env.db, candidateID, testutil.CreateTestToken(t, env.db, "AAAAA", models.TokenTypeStudent, "7A"), 1)
	testutil.CreateTestVote(t, env.db, candidateID, testutil.CreateTestToken(t, env.db, "BBBBB", models.TokenTypeTeacher, ""), 2)
	testutil.CreateTestToken(t, env.db, "CCCCC", models.TokenTypeStudent, "7A")

	w := httptest.NewRecorder()
	handler.ResetAll(w, httptest.NewRequest("POST", "/admin/votes/reset", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var summary models.ResetSummary
	testutil.AssertJSON(t, w, &summary)
	if summary.DeletedVotes != 2 || summary.ResetTokens != 2 {
		t.Errorf("Unexpected reset summary: %+v", summary)
	}

	w = httptest.NewRecorder()
	handler.ListVotes(w, httptest.NewRequest("GET", "/admin/votes", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("Expected no votes after reset, got %s", w.Body.String())
	}
}
