package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridBuildMessage(t *testing.T) {
	sender := NewSendGrid("key", "crm@example.com", "Consultancy CRM")
	built := sender.build(Message{To: "asha@example.com", ToName: "Asha", Subject: "Follow-up assigned", PlainText: "Call Ravi"})

	require.NotNil(t, built.From)
	assert.Equal(t, "crm@example.com", built.From.Address)
	assert.Equal(t, "Follow-up assigned", built.Subject)
	require.Len(t, built.Personalizations, 1)
	require.Len(t, built.Personalizations[0].To, 1)
	assert.Equal(t, "asha@example.com", built.Personalizations[0].To[0].Address)
	require.Len(t, built.Content, 2)
	assert.Equal(t, "<p>Call Ravi</p>", built.Content[1].Value)
}

func TestSendGridRejectsMissingRecipient(t *testing.T) {
	sender := NewSendGrid("key", "crm@example.com", "Consultancy CRM")
	assert.Error(t, sender.Send(context.Background(), Message{Subject: "x"}))
}
