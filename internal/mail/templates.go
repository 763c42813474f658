package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// VerificationSubject is the subject line of the email verification message.
const VerificationSubject = "Email Verification - Click to Verify"

var (
	verificationText = texttemplate.Must(texttemplate.New("verification.txt").Parse(
		`Hello,

Click the link below to verify your email address:

{{.Link}}

This link expires in {{.ExpiresIn}}.

If you did not create an account, you can ignore this message.
`))

	verificationHTML = htmltemplate.Must(htmltemplate.New("verification.html").Parse(
		`<p>Hello,</p>
<p>Click the link below to verify your email address:</p>
<p><a href="{{.Link}}">Verify Email</a></p>
<p>This link expires in {{.ExpiresIn}}.</p>
<p>If you did not create an account, you can ignore this message.</p>
`))
)

type verificationData struct {
	Link      string
	ExpiresIn string
}

// VerificationMessage renders the verification email for to.
func VerificationMessage(to, link, expiresIn string) (Message, error) {
	data := verificationData{Link: link, ExpiresIn: expiresIn}

	var text, html bytes.Buffer
	if err := verificationText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to render verification text: %w", err)
	}
	if err := verificationHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render verification html: %w", err)
	}

	return Message{
		To:      to,
		Subject: VerificationSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
