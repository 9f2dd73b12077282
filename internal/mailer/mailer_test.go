package mailer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colivhub/portal-server-go/internal/model"
)

type fakeSendClient struct {
	sent []*mail.SGMailV3
	resp *rest.Response
	err  error
}

func (f *fakeSendClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	return f.resp, f.err
}

func TestSendGridMailer_Send(t *testing.T) {
	msg := Message{To: "alice@example.com", Subject: "Hi", Text: "plain", HTML: "<p>html</p>"}

	t.Run("sends a single email", func(t *testing.T) {
		client := &fakeSendClient{resp: &rest.Response{StatusCode: http.StatusAccepted}}
		m := &SendGridMailer{client: client, fromName: "Coliv Hub", fromAddr: "hello@example.com"}

		require.NoError(t, m.Send(context.Background(), msg))
		require.Len(t, client.sent, 1)
		assert.Equal(t, "Hi", client.sent[0].Subject)
		assert.Equal(t, "hello@example.com", client.sent[0].From.Address)
		assert.Equal(t, "alice@example.com", client.sent[0].Personalizations[0].To[0].Address)
	})

	t.Run("transport error", func(t *testing.T) {
		client := &fakeSendClient{err: errors.New("dial tcp: timeout")}
		m := &SendGridMailer{client: client}

		err := m.Send(context.Background(), msg)
		assert.ErrorContains(t, err, "dial tcp: timeout")
	})

	t.Run("rejected by provider", func(t *testing.T) {
		client := &fakeSendClient{resp: &rest.Response{StatusCode: http.StatusUnauthorized, Body: "bad key"}}
		m := &SendGridMailer{client: client}

		err := m.Send(context.Background(), msg)
		assert.ErrorContains(t, err, "status 401")
	})
}

func TestLinkMessage(t *testing.T) {
	t.Run("english magic link", func(t *testing.T) {
		msg, err := LinkMessage(model.LinkPurposeMagic, model.LanguageEN, "alice@example.com", "https://x.test/auth/callback?token=abc", 60)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", msg.To)
		assert.Equal(t, "Your sign-in link", msg.Subject)
		assert.Contains(t, msg.Text, "https://x.test/auth/callback?token=abc")
		assert.Contains(t, msg.Text, "60 minutes")
		assert.Contains(t, msg.HTML, `href="https://x.test/auth/callback?token=abc"`)
	})

	t.Run("unknown language uses primary copy", func(t *testing.T) {
		msg, err := LinkMessage(model.LinkPurposeRecovery, model.Language("de"), "a@b.c", "https://x.test", 15)
		require.NoError(t, err)
		assert.Equal(t, "Réinitialisation du mot de passe", msg.Subject)
	})

	t.Run("unknown purpose", func(t *testing.T) {
		_, err := LinkMessage(model.LinkPurpose("invite"), model.LanguageEN, "a@b.c", "https://x.test", 15)
		assert.Error(t, err)
	})
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.Send(context.Background(), Message{To: "a@b.c"}))
}
