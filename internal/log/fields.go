package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldWalletID    = "wallet_id"
	FieldCategoryID  = "category_id"
	FieldTxID        = "transaction_id"
	FieldRuleID      = "rule_id"
	FieldAmountCents = "amount_cents"
	FieldFrequency   = "frequency"
	FieldNextDue     = "next_due"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentBudget    = "budget"
	ComponentRecurring = "recurring"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpReload   = "reload"
	OpAllocate = "allocate"
	OpCatchUp  = "catch_up"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
