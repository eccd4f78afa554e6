package storage

import "ammcore/internal/model"

// Storage is an append-only sink for journal records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}
