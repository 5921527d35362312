package dto

import (
	"time"

	"jobradar/internal/ingest"
)

type IngestRunResponse struct {
	StartedAt     string                `json:"started_at"`
	FinishedAt    string                `json:"finished_at"`
	CorpusVersion int64                 `json:"corpus_version"`
	Sources       []ingest.SourceReport `json:"sources"`
}

func FromBatchReport(r ingest.BatchReport) IngestRunResponse {
	return IngestRunResponse{
		StartedAt:     r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:    r.FinishedAt.UTC().Format(time.RFC3339),
		CorpusVersion: r.CorpusVersion,
		Sources:       r.Sources,
	}
}
