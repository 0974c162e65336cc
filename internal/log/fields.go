package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldOwner       = "owner"
	FieldUserID      = "user_id"
	FieldRowID       = "row_id"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldOccurredOn  = "occurred_on"
	FieldDonorName   = "donor_name"
	FieldBackend     = "backend"
	FieldCollection  = "collection"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentAdmin    = "admin"
	ComponentGate     = "gate"
	ComponentStore    = "store"
	ComponentIdentity = "identity"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentMirror   = "mirror"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpDelete   = "delete"
	OpList     = "list"
	OpGrant    = "grant"
	OpRevoke   = "revoke"
	OpCheck    = "check"
	OpRefresh  = "refresh"
	OpAppend   = "append"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
