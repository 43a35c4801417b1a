package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldUserID    = "user_id"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldCategory  = "category"
	FieldMonth     = "month"
	FieldYear      = "year"
	FieldAmount    = "amount_cents"
	FieldKey       = "key"
	FieldRef       = "ref"
	FieldStep      = "step"
	FieldPercent   = "percent"
)

// Standard component names
const (
	ComponentApp     = "app"
	ComponentStorage = "storage"
	ComponentLedger  = "ledger"
	ComponentBudget  = "budget"
	ComponentGoal    = "goal"
	ComponentReport  = "report"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBlob    = "blob"
)
