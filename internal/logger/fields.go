package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/catalog"
)

const (
	// FieldJobID is the structured log field key for the job identifier.
	FieldJobID = "job_id"
	// FieldJobTitle is the structured log field key for the job title.
	FieldJobTitle = "job_title"
	// FieldCompany is the structured log field key for the hiring company.
	FieldCompany = "company"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// JobFields returns the fields that identify a job in log entries.
func JobFields(job *catalog.Job) []zap.Field {
	if job == nil {
		return []zap.Field{}
	}
	return StringFields(
		StringField{Key: FieldJobID, Value: job.ID},
		StringField{Key: FieldJobTitle, Value: job.Title},
		StringField{Key: FieldCompany, Value: job.Company},
	)
}

// WithJobFields attaches the job fields to the provided logger.
func WithJobFields(logger *zap.Logger, job *catalog.Job) *zap.Logger {
	return WithFields(logger, JobFields(job)...)
}
