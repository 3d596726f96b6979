package log

// Field names shared across components so records stay greppable.
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldAccountUID  = "account_uid"
	FieldGoalUID     = "goal_uid"
	FieldTransferUID = "transfer_uid"
	FieldAmountMinor = "amount_minor_units"
)

// Component names attached by the emitting layer.
const (
	ComponentHTTP     = "http"
	ComponentStatus   = "status"
	ComponentTransfer = "transfer"
)

// Operation names for the round-up pipeline.
const (
	OpRefresh  = "refresh"
	OpTransfer = "transfer"
	OpRecord   = "record"
)

// LogFields builds the attribute set for one record.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransfer adds the identifiers of one round-up transfer.
func (f LogFields) WithTransfer(accountUID, goalUID, transferUID string, amountMinorUnits int64) LogFields {
	f[FieldAccountUID] = accountUID
	f[FieldGoalUID] = goalUID
	f[FieldTransferUID] = transferUID
	f[FieldAmountMinor] = amountMinorUnits
	return f
}

// ToSlice flattens the fields into slog's alternating key-value form.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
