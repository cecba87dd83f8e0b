package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldUpdateID  = "update_id"
	FieldChatID    = "chat_id"
	FieldUserID    = "user_id"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldOperation = "operation"
	FieldCategory  = "category"
	FieldPeriod    = "period"
	FieldModel     = "model"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentTelegram = "telegram"
	ComponentReport   = "report"
	ComponentSheets   = "sheets"
	ComponentLLM      = "llm"
	ComponentAMQP     = "amqp"
)

// Operations defines standard operation names
const (
	OpStart    = "start"
	OpAnalyze  = "analyze"
	OpChat     = "chat"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeUsage         = "usage_error"
	ErrorTypeAggregation   = "aggregation_error"
	ErrorTypeGeneration    = "generation_error"
	ErrorTypeTransport     = "transport_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error and error type fields
func (f LogFields) WithError(err error, errorType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errorType
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithUpdate adds the Telegram update, chat and user fields
func (f LogFields) WithUpdate(updateID int, chatID, userID int64) LogFields {
	f[FieldUpdateID] = updateID
	f[FieldChatID] = chatID
	f[FieldUserID] = userID
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
