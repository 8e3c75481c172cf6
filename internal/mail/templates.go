package mail

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

const otpSubject = "Your DocuLingua password reset code"

const otpText = `Hello {{.Name}},

Your DocuLingua password reset code is {{.Code}}.
It expires in {{.Minutes}} minutes.

If you did not ask to reset your password you can ignore this email.
`

const otpHTML = `<!doctype html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <p>Hello {{.Name}},</p>
  <p>Your DocuLingua password reset code is</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>It expires in {{.Minutes}} minutes.</p>
  <p style="color: #777;">If you did not ask to reset your password you can ignore this email.</p>
</body>
</html>
`

var (
	otpTextTmpl = texttemplate.Must(texttemplate.New("otp.txt").Parse(otpText))
	otpHTMLTmpl = htmltemplate.Must(htmltemplate.New("otp.html").Parse(otpHTML))
)

type otpData struct {
	Name    string
	Code    string
	Minutes int
}

// OTPMessage renders the password-reset email for to.
func OTPMessage(to, name, code string, validFor time.Duration) (Message, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	data := otpData{Name: name, Code: code, Minutes: int(validFor.Minutes())}

	var text bytes.Buffer
	if err := otpTextTmpl.Execute(&text, data); err != nil {
		return Message{}, err
	}
	var html bytes.Buffer
	if err := otpHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: otpSubject, Text: text.String(), HTML: html.String()}, nil
}
