package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldStatus       = "status"
	FieldStudentName  = "student_name"
	FieldAmountCents  = "amount_cents"
	FieldBalanceCents = "balance_cents"
	FieldBackend      = "backend"
	FieldPath         = "path"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentMenu    = "menu"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpCredit   = "credit"
	OpDebit    = "debit"
	OpReset    = "reset"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithAmounts adds the amount of an operation and the resulting balance
func (f LogFields) WithAmounts(amountCents, balanceCents int64) LogFields {
	f[FieldAmountCents] = amountCents
	f[FieldBalanceCents] = balanceCents
	return f
}

// WithSuccess adds success field
func (f LogFields) WithSuccess(ok bool) LogFields {
	f[FieldSuccess] = ok
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
