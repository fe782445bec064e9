// Package notify defines the outbound notification boundary. Delivery is an
// external concern; failures are logged and reported but never abort the
// operation that triggered them.
package notify

import "context"

// TemplateKey identifies a transactional message template
type TemplateKey string

const (
	TemplateEstimateSent         TemplateKey = "estimate_sent"
	TemplateWorkOrderCreated     TemplateKey = "work_order_created"
	TemplateWorkOrderCompleted   TemplateKey = "work_order_completed"
	TemplateMaintenanceDue       TemplateKey = "maintenance_due"
	TemplateMaintenanceOverdue   TemplateKey = "maintenance_overdue"
	TemplateAppointmentConfirmed TemplateKey = "appointment_confirmation"
	TemplateAppointmentReminder  TemplateKey = "appointment_reminder"
)

// Notifier sends a templated message to a recipient address
type Notifier interface {
	Send(ctx context.Context, recipient string, template TemplateKey, data map[string]interface{}) error
}
