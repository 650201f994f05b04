package notifications

type PublishInput struct {
	Subject   string
	EventType string
	Detail    map[string]interface{}
}

type PublishOutput struct {
	MessageId string
}

// DualPublishOutput reports the all-or-partial join of the two publishes.
// Delivered is false only when both legs failed.
type DualPublishOutput struct {
	ComplianceMessageId  string   `json:"complianceMessageId,omitempty"`
	OperationalMessageId string   `json:"operationalMessageId,omitempty"`
	Delivered            bool     `json:"delivered"`
	Errors               []string `json:"errors"`
}

type NotificationService interface {
	PublishCompliance(input PublishInput) (*PublishOutput, error)
	PublishOperational(input PublishInput) (*PublishOutput, error)
	PublishDual(input PublishInput) DualPublishOutput
}
