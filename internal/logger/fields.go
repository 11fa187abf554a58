package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldBackendModel is the structured log field key for the generative
	// backend model identifier.
	FieldBackendModel = "backend_model"
	// FieldSubmission is the structured log field key for the submission id
	// tying all records of one invocation together.
	FieldSubmission = "submission_id"
	// FieldTask is the structured log field key for a task name.
	FieldTask = "task"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields,
// trimming whitespace and omitting entries with empty keys or values.
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

// WithFields safely attaches the provided fields to the logger. A nil logger
// defaults to a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithBackendModel attaches the backend model field, skipping empty values.
func WithBackendModel(logger *zap.Logger, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldBackendModel, Value: model},
	)...)
}

// WithSubmission attaches the submission id field, skipping empty values.
func WithSubmission(logger *zap.Logger, submissionID string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldSubmission, Value: submissionID},
	)...)
}
