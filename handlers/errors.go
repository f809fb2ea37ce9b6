// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/middleware"
	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/voting"
)

var kindStatus = map[models.ErrorKind]int{
	models.KindInvalidFormat:      http.StatusBadRequest,
	models.KindInvalidRequest:     http.StatusBadRequest,
	models.KindNegativePoints:     http.StatusBadRequest,
	models.KindTokenInvalidOrUsed: http.StatusConflict,
	models.KindTokenNotUsed:       http.StatusConflict,
	models.KindNoVotesToAdjust:    http.StatusConflict,
	models.KindConflict:           http.StatusConflict,
	models.KindCandidateNotFound:  http.StatusNotFound,
	models.KindTokenNotFound:      http.StatusNotFound,
	models.KindVoteNotFound:       http.StatusNotFound,
	models.KindTimeout:            http.StatusGatewayTimeout,
	models.KindStoreUnavailable:   http.StatusServiceUnavailable,
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind models.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeServiceError renders an error from voting.Service. Store failures
// are logged with their cause and reported without it.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	kind := voting.Kind(err)
	status := StatusFor(kind)

	message := err.Error()
	switch {
	case errors.Is(err, voting.ErrCodeSpaceExhausted):
		log.Error(op+" failed", zap.Error(err))
		message = voting.ErrCodeSpaceExhausted.Error()
	case kind == models.KindStoreUnavailable:
		log.Error(op+" failed", zap.Error(err))
		message = voting.ErrStoreUnavailable.Error()
	case kind == models.KindTimeout:
		log.Warn(op+" timed out", zap.Error(err))
		message = voting.ErrTimeout.Error()
	case kind == models.KindTokenInvalidOrUsed:
		// Clients never learn whether the code exists
		message = voting.ErrTokenInvalidOrUsed.Error()
	}

	middleware.KindErrorResponse(w, status, kind, message)
}
