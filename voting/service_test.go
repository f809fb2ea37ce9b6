// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/danielhkuo/school-vote/feed"
	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/store"
	"github.com/danielhkuo/school-vote/testutil"
)

// recordingNotifier remembers which collections were reported as changed
type recordingNotifier struct {
	mu      sync.Mutex
	changed []feed.Collection
}

func (n *recordingNotifier) Notify(collections ...feed.Collection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, collections...)
}

func (n *recordingNotifier) saw(c feed.Collection) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, got := range n.changed {
		if got == c {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T) (*Service, *sql.DB, *recordingNotifier) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	log := zaptest.NewLogger(t)
	notifier := &recordingNotifier{}
	return NewService(store.New(conn, log), notifier, log, 5*time.Second), conn, notifier
}

func countVotesForToken(t *testing.T, conn *sql.DB, tokenID string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE token_id = $1`, tokenID).Scan(&n))
	return n
}

func TestCastVote_StudentThenReuse(t *testing.T) {
	ctx := context.Background()
	svc, conn, notifier := newTestService(t)
	candidateX := testutil.CreateTestCandidate(t, conn, "Candidate X")
	tokenID := testutil.CreateTestToken(t, conn, "ABCDE", models.TokenTypeStudent, "7A")

	// Lowercase input is normalized
	receipt, err := svc.CastVote(ctx, "abcde", candidateX)
	require.NoError(t, err)
	assert.Equal(t, candidateX, receipt.CandidateID)
	assert.Equal(t, "Candidate X", receipt.CandidateName)
	assert.Equal(t, 1, receipt.Points)
	assert.NotEmpty(t, receipt.VoteID)

	var isUsed bool
	require.NoError(t, conn.QueryRow(`SELECT is_used FROM token WHERE id = $1`, tokenID).Scan(&isUsed))
	assert.True(t, isUsed)
	assert.True(t, notifier.saw(feed.Votes))
	assert.True(t, notifier.saw(feed.Results))

	// Redeeming the same code again fails
	_, err = svc.CastVote(ctx, "ABCDE", candidateX)
	assert.ErrorIs(t, err, ErrTokenInvalidOrUsed)
	assert.Equal(t, models.KindTokenInvalidOrUsed, Kind(err))
	assert.Equal(t, 1, countVotesForToken(t, conn, tokenID))
}

func TestCastVote_TeacherWeighsTwo(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := newTestService(t)
	candidateY := testutil.CreateTestCandidate(t, conn, "Candidate Y")
	testutil.CreateTestToken(t, conn, "QWERT", models.TokenTypeTeacher, "")

	receipt, err := svc.CastVote(ctx, "QWERT", candidateY)
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.Points)

	votes, err := svc.Votes(ctx)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, candidateY, votes[0].CandidateID)
	assert.Equal(t, 2, votes[0].Points)
}

func TestCastVote_Errors(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := newTestService(t)
	candidate := testutil.CreateTestCandidate(t, conn, "Alya")
	tokenID := testutil.CreateTestToken(t, conn, "GOOD1", models.TokenTypeStudent, "7A")

	tests := []struct {
		name        string
		code        string
		candidateID string
		wantErr     error
		wantKind    models.ErrorKind
	}{
		{"too short", "GOOD", candidate, ErrInvalidFormat, models.KindInvalidFormat},
		{"symbols", "GO-D1", candidate, ErrInvalidFormat, models.KindInvalidFormat},
		{"unknown code", "NOPE1", candidate, ErrTokenInvalidOrUsed, models.KindTokenInvalidOrUsed},
		{"unknown candidate", "GOOD1", "missing", ErrCandidateNotFound, models.KindCandidateNotFound},
		{"empty candidate", "GOOD1", "", ErrCandidateNotFound, models.KindCandidateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CastVote(ctx, tt.code, tt.candidateID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, Kind(err))
		})
	}

	// None of the failures consumed the token
	_, err := svc.ValidateToken(ctx, "good1")
	assert.NoError(t, err)
	assert.Equal(t, 0, countVotesForToken(t, conn, tokenID))
}

func TestCastVote_ConcurrentSameToken(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := newTestService(t)
	candidates := []string{
		testutil.CreateTestCandidate(t, conn, "Alya"),
		testutil.CreateTestCandidate(t, conn, "Bima"),
	}
	tokenID := testutil.CreateTestToken(t, conn, "ZZZZZ", models.TokenTypeStudent, "9C")

	const attempts = 16
	var successCount, rejectedCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CastVote(ctx, "ZZZZZ", candidates[i%2])
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, ErrTokenInvalidOrUsed):
				rejectedCount.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successCount.Load(), "exactly one redemption must win")
	assert.Equal(t, int32(attempts-1), rejectedCount.Load())
	assert.Equal(t, 1, countVotesForToken(t, conn, tokenID))
}

func TestCastVote_ManyTokensConcurrently(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := newTestService(t)
	candidate := testutil.CreateTestCandidate(t, conn, "Alya")

	codes := []string{"MANY1", "MANY2", "MANY3", "MANY4", "MANY5", "MANY6"}
	types := map[string]string{}
	for i, code := range codes {
		tokenType := models.TokenTypeStudent
		if i%3 == 0 {
			tokenType = models.TokenTypeTeacher
		}
		testutil.CreateTestToken(t, conn, code, tokenType, "7A")
		types[code] = tokenType
	}

	// Each code is tried three times at once
	var wg sync.WaitGroup
	for _, code := range codes {
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				_, _ = svc.CastVote(ctx, code, candidate)
			}(code)
		}
	}
	wg.Wait()

	tokens, err := svc.Tokens(ctx, models.TabAll)
	require.NoError(t, err)
	votes, err := svc.Votes(ctx)
	require.NoError(t, err)
	require.Len(t, votes, len(codes))

	byID := map[string]models.Token{}
	for _, tok := range tokens {
		byID[tok.ID] = tok
		assert.True(t, tok.IsUsed)
	}
	for _, v := range votes {
		tok := byID[v.TokenID]
		want := 1
		if types[tok.Code] == models.TokenTypeTeacher {
			want = 2
		}
		assert.Equal(t, want, v.Points, "weight for %s", tok.Code)
	}
}

func TestValidateToken(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := newTestService(t)
	testutil.CreateTestToken(t, conn, "CHECK", models.TokenTypeTeacher, "")

	tok, err := svc.ValidateToken(ctx, " check ")
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeTeacher, tok.Type)
	assert.False(t, tok.IsUsed)

	_, err = svc.ValidateToken(ctx, "CHEC")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = svc.ValidateToken(ctx, "OTHER")
	assert.ErrorIs(t, err, ErrTokenInvalidOrUsed)
}

// stubStore lets individual methods be replaced; anything not stubbed
// panics through the nil embedded interface
type stubStore struct {
	Store
	findCalls atomic.Int32
	find      func(ctx context.Context, code string) (models.Token, error)
	redeem    func(ctx context.Context, tokenID, candidateID string, points int) (models.Vote, error)
}

func (s *stubStore) FindUnusedTokenByCode(ctx context.Context, code string) (models.Token, error) {
	s.findCalls.Add(1)
	return s.find(ctx, code)
}

func (s *stubStore) GetCandidate(ctx context.Context, id string) (models.Candidate, error) {
	return models.Candidate{ID: id, Name: "Stub"}, nil
}

func (s *stubStore) RedeemToken(ctx context.Context, tokenID, candidateID string, points int) (models.Vote, error) {
	return s.redeem(ctx, tokenID, candidateID, points)
}

func TestCastVote_FormatRejectedBeforeLookup(t *testing.T) {
	st := &stubStore{find: func(ctx context.Context, code string) (models.Token, error) {
		return models.Token{}, store.ErrNotFound
	}}
	svc := NewService(st, nil, zaptest.NewLogger(t), time.Second)

	for _, code := range []string{"", "ABCD", "ABCDEF", "AB CD", "AB_CD", "abc!e", "ÁBCDE"} {
		_, err := svc.CastVote(context.Background(), code, "c1")
		assert.ErrorIs(t, err, ErrInvalidFormat, "code %q", code)
	}
	assert.Equal(t, int32(0), st.findCalls.Load(), "store must not be queried for malformed codes")
}

func TestCastVote_Timeout(t *testing.T) {
	st := &stubStore{find: func(ctx context.Context, code string) (models.Token, error) {
		<-ctx.Done()
		return models.Token{}, ctx.Err()
	}}
	svc := NewService(st, nil, zaptest.NewLogger(t), 20*time.Millisecond)

	_, err := svc.CastVote(context.Background(), "SLOW1", "c1")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrTokenInvalidOrUsed)
	assert.Equal(t, models.KindTimeout, Kind(err))
}

func TestCastVote_StoreUnavailable(t *testing.T) {
	boom := errors.New("connection refused")
	st := &stubStore{find: func(ctx context.Context, code string) (models.Token, error) {
		return models.Token{}, boom
	}}
	svc := NewService(st, nil, zaptest.NewLogger(t), time.Second)

	_, err := svc.CastVote(context.Background(), "DOWN1", "c1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, models.KindStoreUnavailable, Kind(err))
}

func TestCastVote_LostRaceIsReportedAsUsed(t *testing.T) {
	st := &stubStore{
		find: func(ctx context.Context, code string) (models.Token, error) {
			return models.Token{ID: "t1", Code: code, Type: models.TokenTypeStudent}, nil
		},
		redeem: func(ctx context.Context, tokenID, candidateID string, points int) (models.Vote, error) {
			return models.Vote{}, store.ErrAlreadyRedeemed
		},
	}
	svc := NewService(st, nil, zaptest.NewLogger(t), time.Second)

	_, err := svc.CastVote(context.Background(), "RACE1", "c1")
	assert.ErrorIs(t, err, ErrRedemptionConflict)
	assert.ErrorIs(t, err, ErrTokenInvalidOrUsed)
	assert.Equal(t, models.KindTokenInvalidOrUsed, Kind(err))
}

func TestCastVote_WeightPassedToLedger(t *testing.T) {
	for tokenType, want := range map[string]int{models.TokenTypeStudent: 1, models.TokenTypeTeacher: 2} {
		var got int
		st := &stubStore{
			find: func(ctx context.Context, code string) (models.Token, error) {
				return models.Token{ID: "t1", Code: code, Type: tokenType}, nil
			},
			redeem: func(ctx context.Context, tokenID, candidateID string, points int) (models.Vote, error) {
				got = points
				return models.Vote{ID: "v1", CandidateID: candidateID, TokenID: tokenID, Points: points}, nil
			},
		}
		svc := NewService(st, nil, zaptest.NewLogger(t), time.Second)

		_, err := svc.CastVote(context.Background(), "WGHT1", "c1")
		require.NoError(t, err)
		assert.Equal(t, want, got, tokenType)
	}
}
