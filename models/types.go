// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Token type constants
const (
	TokenTypeStudent = "student"
	TokenTypeTeacher = "teacher"
)

// Admin role constants
const (
	RoleSuper = "super"
	RoleAdmin = "admin"
)

// Token list tabs. Any other tab value is treated as a class name.
const (
	TabAll      = "all"
	TabTeachers = "teachers"
)

// MaxTokenBatch caps a single issuance request
const MaxTokenBatch = 500

// ErrorKind classifies a failed operation for clients
type ErrorKind string

const (
	KindInvalidFormat      ErrorKind = "InvalidFormat"
	KindTokenInvalidOrUsed ErrorKind = "TokenInvalidOrUsed"
	KindCandidateNotFound  ErrorKind = "CandidateNotFound"
	KindTimeout            ErrorKind = "Timeout"
	KindStoreUnavailable   ErrorKind = "StoreUnavailable"
	KindTokenNotFound      ErrorKind = "TokenNotFound"
	KindTokenNotUsed       ErrorKind = "TokenNotUsed"
	KindVoteNotFound       ErrorKind = "VoteNotFound"
	KindNoVotesToAdjust    ErrorKind = "NoVotesToAdjust"
	KindNegativePoints     ErrorKind = "NegativePoints"
	KindConflict           ErrorKind = "Conflict"
	KindInvalidRequest     ErrorKind = "InvalidRequest"
)

// Domain types

type Token struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Type      string     `json:"type"`
	Class     string     `json:"class,omitempty"`
	Teacher   string     `json:"teacher,omitempty"`
	IsUsed    bool       `json:"is_used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Candidate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo"`
	Vision    string    `json:"vision"`
	Mission   string    `json:"mission"`
	Class     string    `json:"class,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vote is one redeemed token. Points are fixed at cast time by the
// token's type and only change through admin corrections.
type Vote struct {
	ID          string     `json:"id"`
	CandidateID string     `json:"candidate_id"`
	TokenID     string     `json:"token_id"`
	Points      int        `json:"points"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Result types

type CandidateResult struct {
	Candidate    Candidate `json:"candidate"`
	TotalPoints  int       `json:"total_points"`
	TotalVotes   int       `json:"total_votes"`
	StudentVotes int       `json:"student_votes"`
	TeacherVotes int       `json:"teacher_votes"`
	Rank         int       `json:"rank"` // 1-indexed ranking
}

type ChartSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Votes int    `json:"votes"`
	Color string `json:"color"`
}

type Stats struct {
	TotalTokens      int     `json:"total_tokens"`
	UsedTokens       int     `json:"used_tokens"`
	AvailableTokens  int     `json:"available_tokens"`
	StudentTokens    int     `json:"student_tokens"`
	TeacherTokens    int     `json:"teacher_tokens"`
	ParticipationPct int     `json:"participation_pct"`
	TotalVotes       int     `json:"total_votes"`
	TotalPoints      int     `json:"total_points"`
	AvgPointsPerVote float64 `json:"avg_points_per_vote"`
}

type ResultSnapshot struct {
	ID         string            `json:"id"`
	ComputedAt time.Time         `json:"computed_at"`
	Rankings   []CandidateResult `json:"rankings"`
	InputsHash string            `json:"inputs_hash"` // Hash of all votes for verification
}

type ResetSummary struct {
	DeletedVotes int `json:"deleted_votes"`
	ResetTokens  int `json:"reset_tokens"`
}

// Request types

type CastVoteRequest struct {
	Code        string `json:"code"`
	CandidateID string `json:"candidate_id"`
}

type ValidateTokenRequest struct {
	Code string `json:"code"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Password, validation.Required),
	)
}

type CreateAdminRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r CreateAdminRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.Role, validation.Required, validation.In(RoleSuper, RoleAdmin)),
	)
}

type CandidateRequest struct {
	Name    string `json:"name"`
	Photo   string `json:"photo"`
	Vision  string `json:"vision"`
	Mission string `json:"mission"`
	Class   string `json:"class"`
}

func (r CandidateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Vision, validation.Required),
		validation.Field(&r.Mission, validation.Required),
		validation.Field(&r.Class, validation.Length(0, 50)),
	)
}

type IssueTokensRequest struct {
	Count   int    `json:"count"`
	Type    string `json:"type"`
	Class   string `json:"class"`
	Teacher string `json:"teacher"`
}

func (r IssueTokensRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Count, validation.Required, validation.Min(1), validation.Max(MaxTokenBatch)),
		validation.Field(&r.Type, validation.Required, validation.In(TokenTypeStudent, TokenTypeTeacher)),
		validation.Field(&r.Class, validation.Length(0, 50)),
		validation.Field(&r.Teacher, validation.Length(0, 100)),
	)
	if err != nil {
		return err
	}
	if r.Type == TokenTypeStudent && r.Class == "" {
		return errors.New("class: cannot be blank for student tokens")
	}
	return nil
}

type UpdateVoteRequest struct {
	Points *int `json:"points"`
}

func (r UpdateVoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Points, validation.NotNil, validation.Min(0)),
	)
}

type OverrideTotalRequest struct {
	TotalPoints *int `json:"total_points"`
}

func (r OverrideTotalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TotalPoints, validation.NotNil, validation.Min(0)),
	)
}

// Response types

type VoteReceipt struct {
	VoteID        string    `json:"vote_id"`
	CandidateID   string    `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
	Points        int       `json:"points"`
	CastAt        time.Time `json:"cast_at"`
}

type TokenCheckResponse struct {
	Type    string `json:"type"`
	Class   string `json:"class,omitempty"`
	Teacher string `json:"teacher,omitempty"`
	Points  int    `json:"points"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Admin       Admin     `json:"admin"`
}

type IssueTokensResponse struct {
	Tokens []Token `json:"tokens"`
}

type ResetTokenResponse struct {
	Token        Token `json:"token"`
	DeletedVotes int   `json:"deleted_votes"`
}

// Error response

type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}
