package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldActor      = "actor"

	FieldPeriod         = "period"
	FieldYear           = "year"
	FieldAmountCents    = "amount_cents"
	FieldCategory       = "category"
	FieldSubscriptionID = "subscription_id"
	FieldMember         = "member"
	FieldPlan           = "plan"
	FieldReportKind     = "report_kind"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentStats        = "stats"
	ComponentForecast     = "forecast"
	ComponentSubscription = "subscription"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentSweeper      = "sweeper"
	ComponentExport       = "export"
)
