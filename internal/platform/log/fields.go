package log

const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldOperator   = "operator_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldTeam       = "team_id"
	FieldMember     = "member_id"
	FieldEvent      = "event_id"
	FieldMonth      = "month"
	FieldAmount     = "amount"
	FieldTopic      = "topic"
)

const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentDues        = "dues"
	ComponentFundraising = "fundraising"
	ComponentReporting   = "reporting"
	ComponentMembers     = "members"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentScheduler   = "scheduler"
)
