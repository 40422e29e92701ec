package session

import (
	"bytes"
	"html/template"
)

const (
	verificationSubject = "Verify Your InsightPulse Pro Account"
	resetSubject        = "Reset Your InsightPulse Pro Password"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4f46e5;">Welcome to InsightPulse Pro{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Thanks for signing up. To complete your registration, please use the verification code below:</p>
  <div style="background-color: #f3f4f6; padding: 15px; border-radius: 5px; text-align: center; font-size: 24px; letter-spacing: 5px; margin: 20px 0;">
    <strong>{{.Code}}</strong>
  </div>
  <p>This code will expire in 30 minutes.</p>
  <p>If you didn't request this verification, please ignore this email.</p>
  <p>Best regards,<br>The InsightPulse Pro Team</p>
</div>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4f46e5;">Password reset requested</h2>
  <p>Use the code below to choose a new password for your InsightPulse Pro account:</p>
  <div style="background-color: #f3f4f6; padding: 15px; border-radius: 5px; text-align: center; font-size: 24px; letter-spacing: 5px; margin: 20px 0;">
    <strong>{{.Code}}</strong>
  </div>
  <p>If you didn't ask to reset your password, you can ignore this email.</p>
  <p>Best regards,<br>The InsightPulse Pro Team</p>
</div>
`))

type codeMail struct {
	Name string
	Code string
}

func render(t *template.Template, data codeMail) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
