package mail

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doculingua-backend/internal/shared/telemetry"
)

func TestOTPMessage(t *testing.T) {
	msg, err := OTPMessage("ann@example.com", "<Ann>", "123456", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, otpSubject, msg.Subject)
	assert.Contains(t, msg.Text, "123456")
	assert.Contains(t, msg.Text, "60 minutes")
	assert.Contains(t, msg.Text, "Hello <Ann>")
	assert.Contains(t, msg.HTML, "123456")
	assert.Contains(t, msg.HTML, "&lt;Ann&gt;", "html body must escape the name")
}

func TestOTPMessageDefaultsName(t *testing.T) {
	msg, err := OTPMessage("a@example.com", " ", "000001", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "Hello there")
}

func TestBuildMsg(t *testing.T) {
	gm, err := buildMsg("DocuLingua <no-reply@doculingua.app>", Message{
		To:      "ann@example.com",
		Subject: "Hi",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = gm.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Hi")
	assert.Contains(t, raw, "ann@example.com")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "plain body")
	assert.Contains(t, raw, "html body")
}

func TestBuildMsgRejectsBadAddress(t *testing.T) {
	_, err := buildMsg("no-reply@doculingua.app", Message{To: "not an address"})
	assert.Error(t, err)
}

func TestNewSMTPRequiresHost(t *testing.T) {
	_, err := NewSMTP(SMTPOptions{})
	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(os.Stdout)

	require.NoError(t, LogMailer{}.Send(context.Background(), Message{To: "a@example.com", Subject: "S", Text: "secret 123456"}))
	assert.Contains(t, buf.String(), "mail.logged")
	assert.False(t, strings.Contains(buf.String(), "123456"), "body is only logged at debug level")
}
