package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/app/models"
)

type recordingSender struct {
	to, subject, body string
	err               error
}

func (s *recordingSender) Send(to, subject, body string) error {
	s.to, s.subject, s.body = to, subject, body
	return s.err
}

type recordingDispatcher struct {
	msgs []Message
	err  error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, msg Message) error {
	d.msgs = append(d.msgs, msg)
	return d.err
}

func TestRenderTemplates(t *testing.T) {
	tests := []struct {
		name     Template
		data     map[string]string
		subject  string
		contains string
	}{
		{TemplateOTPRegistration, map[string]string{"code": "123456", "ttlMinutes": "5"}, "Your PixelShop verification code", "123456"},
		{TemplateOTPResetPassword, map[string]string{"code": "654321", "ttlMinutes": "5"}, "Reset your PixelShop password", "654321"},
		{TemplateWelcome, map[string]string{"username": "bob"}, "Welcome to PixelShop", "bob"},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			subject, body, err := Render(tt.name, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, subject)
			assert.Contains(t, body, tt.contains)
			assert.Contains(t, body, "<!DOCTYPE html>")
		})
	}
}

func TestRenderEscapesData(t *testing.T) {
	_, body, err := Render(TemplateWelcome, map[string]string{"username": "<script>x</script>"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>x</script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render(Template("NOPE"), nil)
	assert.Error(t, err)
}

func TestDeliver(t *testing.T) {
	sender := &recordingSender{}
	err := Deliver(sender, Message{To: "a@x.com", Template: TemplateWelcome, Data: map[string]string{"username": "bob"}})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sender.to)
	assert.Equal(t, "Welcome to PixelShop", sender.subject)

	sender.err = errors.New("smtp down")
	assert.Error(t, Deliver(sender, Message{To: "a@x.com", Template: TemplateWelcome}))
}

func TestWelcomeNotifierSwallowsDispatchErrors(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("queue down")}
	n := NewWelcomeNotifier(d)

	assert.NotPanics(t, func() {
		n.NotifyUserRegistered(context.Background(), models.User{Email: "a@x.com", Username: "bob"})
	})
	require.Len(t, d.msgs, 1)
	assert.Equal(t, TemplateWelcome, d.msgs[0].Template)
	assert.Equal(t, "bob", d.msgs[0].Data["username"])
}
