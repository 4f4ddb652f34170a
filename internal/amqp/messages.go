package amqp

import (
	"encoding/json"
	"time"
)

// Subscription lifecycle event kinds.
const (
	EventSubscriptionRenewed = "subscription.renewed"
	EventSubscriptionExpired = "subscription.expired"
	EventSubscriptionRevoked = "subscription.revoked"
)

// SubscriptionEventMessage notifies the external mailer of a lifecycle
// transition. It carries only identifiers and the member contact; the
// consumer fetches anything else it needs.
type SubscriptionEventMessage struct {
	Event          string    `json:"event"`
	SubscriptionID int64     `json:"subscription_id"`
	MemberName     string    `json:"member_name"`
	MemberEmail    string    `json:"member_email,omitempty"`
	PlanLabel      string    `json:"plan_label"`
	EndDate        time.Time `json:"end_date"`
	Actor          string    `json:"actor,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewSubscriptionEventMessage(event string, subscriptionID int64) *SubscriptionEventMessage {
	return &SubscriptionEventMessage{
		Event:          event,
		SubscriptionID: subscriptionID,
		Timestamp:      time.Now(),
	}
}

func (m *SubscriptionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SubscriptionEventMessageFromJSON(data []byte) (*SubscriptionEventMessage, error) {
	var msg SubscriptionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReportExportMessage asks the export worker to build a period report
// and append it to the board spreadsheet.
type ReportExportMessage struct {
	Kind        string    `json:"kind"` // monthly, quarterly, yearly
	Number      int       `json:"number,omitempty"`
	Year        int       `json:"year"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewReportExportMessage(kind string, number, year int, requestedBy string) *ReportExportMessage {
	return &ReportExportMessage{
		Kind:        kind,
		Number:      number,
		Year:        year,
		RequestedBy: requestedBy,
		Timestamp:   time.Now(),
	}
}

func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
