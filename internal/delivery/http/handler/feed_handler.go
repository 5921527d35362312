package handler

import (
	"errors"
	"strings"

	"jobradar/internal/delivery/http/dto"
	"jobradar/internal/delivery/http/middleware"
	"jobradar/internal/pkg/response"
	"jobradar/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type FeedHandler struct {
	feed      usecase.FeedUsecase
	breakdown usecase.BreakdownUsecase
}

func NewFeedHandler(feed usecase.FeedUsecase, breakdown usecase.BreakdownUsecase) *FeedHandler {
	return &FeedHandler{feed: feed, breakdown: breakdown}
}

func (h *FeedHandler) HandleDailyFeed(c fiber.Ctx) error {
	candidateID, err := uuid.Parse(c.Params("candidate_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid candidate id", nil, err)
	}

	refresh := parseBoolQuery(c.Query("refresh"))

	matches, err := h.feed.GetDailyFeed(c.Context(), candidateID, refresh)
	if err != nil {
		return mapFeedError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageSuccess, dto.FromMatches(matches))
}

func (h *FeedHandler) HandleMatchBreakdown(c fiber.Ctx) error {
	candidateID, err := uuid.Parse(c.Params("candidate_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid candidate id", nil, err)
	}
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid job id", nil, err)
	}

	m, err := h.breakdown.GetMatchBreakdown(c.Context(), candidateID, jobID)
	if err != nil {
		return mapFeedError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageSuccess, dto.FromMatch(m))
}

func parseBoolQuery(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func mapFeedError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	case errors.Is(err, usecase.ErrCandidateNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "candidate not found", nil, err)
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "job not found", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
