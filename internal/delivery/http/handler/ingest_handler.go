package handler

import (
	"errors"

	"jobradar/internal/delivery/http/dto"
	"jobradar/internal/delivery/http/middleware"
	"jobradar/internal/pkg/response"
	"jobradar/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type IngestHandler struct {
	uc usecase.IngestUsecase
}

func NewIngestHandler(uc usecase.IngestUsecase) *IngestHandler {
	return &IngestHandler{uc: uc}
}

// HandleRunBatch triggers one ingestion batch, optionally restricted to a
// single source via ?source=. Batches are idempotent, so an accidental
// double trigger is safe.
func (h *IngestHandler) HandleRunBatch(c fiber.Ctx) error {
	report, err := h.uc.TriggerBatch(c.Context(), c.Query("source"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnknownSource):
			return middleware.NewAppError(fiber.StatusBadRequest, "unknown source", nil, err)
		case errors.Is(err, usecase.ErrBatchAlreadyActive):
			return middleware.NewAppError(fiber.StatusConflict, "ingestion batch already running", nil, err)
		default:
			return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
		}
	}
	return response.Success(c, fiber.StatusOK, response.MessageSuccess, dto.FromBatchReport(report))
}
