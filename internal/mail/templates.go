package mail

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

type templateData struct {
	Fullname string
	Code     string
	Minutes  int
}

type accountTemplate struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

var verificationTemplate = accountTemplate{
	subject: "Verify your email address",
	text: texttemplate.Must(texttemplate.New("verify-text").Parse(
		"Hello {{.Fullname}},\n\n" +
			"Your verification code is {{.Code}}.\n" +
			"It expires in {{.Minutes}} minutes.\n\n" +
			"If you did not create an account, ignore this email.\n")),
	html: htmltemplate.Must(htmltemplate.New("verify-html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Verify your email</h2>
    <p>Hello {{.Fullname}},</p>
    <p>Your verification code is:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">{{.Code}}</div>
    <p>The code expires in {{.Minutes}} minutes.</p>
  </div>
</body>
</html>`)),
}

var resetTemplate = accountTemplate{
	subject: "Reset your password",
	text: texttemplate.Must(texttemplate.New("reset-text").Parse(
		"Hello {{.Fullname}},\n\n" +
			"Use code {{.Code}} to reset your password.\n" +
			"It expires in {{.Minutes}} minutes.\n\n" +
			"If you did not ask for a reset, your password is unchanged.\n")),
	html: htmltemplate.Must(htmltemplate.New("reset-html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Password reset</h2>
    <p>Hello {{.Fullname}},</p>
    <p>Use this code to reset your password:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">{{.Code}}</div>
    <p>The code expires in {{.Minutes}} minutes. If you did not ask for a reset, ignore this email.</p>
  </div>
</body>
</html>`)),
}

// VerificationEmail builds the account verification message.
func VerificationEmail(to, fullname, code string, minutes int) (Message, error) {
	return verificationTemplate.render(to, fullname, code, minutes)
}

// ResetPasswordEmail builds the password reset message.
func ResetPasswordEmail(to, fullname, code string, minutes int) (Message, error) {
	return resetTemplate.render(to, fullname, code, minutes)
}

func (t accountTemplate) render(to, fullname, code string, minutes int) (Message, error) {
	data := templateData{Fullname: strings.TrimSpace(fullname), Code: code, Minutes: minutes}
	if data.Fullname == "" {
		data.Fullname = "there"
	}

	var text bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	var html bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: t.subject, Text: text.String(), HTML: html.String()}, nil
}
