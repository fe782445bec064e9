package notify

import (
	"context"

	"shopcrm/pkg/logger"

	"go.uber.org/zap"
)

// LogNotifier is a Notifier that writes deliveries to the service log.
// It stands in for the hosted email/SMS provider in development and tests.
type LogNotifier struct{}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send logs the notification instead of delivering it
func (n *LogNotifier) Send(ctx context.Context, recipient string, template TemplateKey, data map[string]interface{}) error {
	logger.FromContext(ctx).Info("notification sent",
		zap.String("recipient", recipient),
		zap.String("template", string(template)),
		zap.Any("data", data),
	)
	return nil
}
