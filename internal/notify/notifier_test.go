package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	sent []TemplateKey
	fail bool
}

func (f *fakeNotifier) Send(ctx context.Context, recipient string, template TemplateKey, data map[string]interface{}) error {
	if f.fail {
		return errors.New("delivery refused")
	}
	f.sent = append(f.sent, template)
	return nil
}

func TestNotifierFake(t *testing.T) {
	var n Notifier = &fakeNotifier{}
	require.NoError(t, n.Send(context.Background(), "ana@shop.test", TemplateEstimateSent, nil))
	require.NoError(t, n.Send(context.Background(), "ana@shop.test", TemplateWorkOrderCreated, nil))
	require.NoError(t, n.Send(context.Background(), "ana@shop.test", TemplateMaintenanceDue, map[string]interface{}{"days": 95}))

	f := n.(*fakeNotifier)
	assert.Equal(t, []TemplateKey{TemplateEstimateSent, TemplateWorkOrderCreated, TemplateMaintenanceDue}, f.sent)

	f.fail = true
	assert.Error(t, n.Send(context.Background(), "ana@shop.test", TemplateWorkOrderCompleted, nil))
	assert.Len(t, f.sent, 3)
}

func TestLogNotifierSend(t *testing.T) {
	n := NewLogNotifier()
	err := n.Send(context.Background(), "ana@shop.test", TemplateAppointmentReminder, map[string]interface{}{
		"shop": "Main Street Auto",
	})
	assert.NoError(t, err)
}
