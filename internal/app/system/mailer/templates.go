// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// ActivationEmailData holds data for the registration code email.
type ActivationEmailData struct {
	SiteName  string
	Name      string
	Code      string
	ExpiresIn string // e.g., "5 minutes"
}

// ResetEmailData holds data for the password reset email.
type ResetEmailData struct {
	SiteName  string
	Name      string
	ResetLink string
	ExpiresIn string
}

var (
	activationHTML = template.Must(template.New("layout").Parse(layoutHTML + activationBodyHTML))
	resetHTML      = template.Must(template.New("layout").Parse(layoutHTML + resetBodyHTML))
)

// BuildActivationEmail creates the registration code email. To is set by the caller.
func BuildActivationEmail(data ActivationEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&text, "Your %s activation code is: %s\n\n", data.SiteName, data.Code)
	fmt.Fprintf(&text, "This code expires in %s.\n\n", data.ExpiresIn)
	text.WriteString("If you did not create an account, you can safely ignore this email.\n")

	return Email{
		Subject:  fmt.Sprintf("Your %s activation code", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(activationHTML, data),
	}
}

// BuildResetEmail creates the password reset email. To is set by the caller.
func BuildResetEmail(data ResetEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&text, "Someone asked to reset the password for your %s account.\n", data.SiteName)
	text.WriteString("Open this link to choose a new one:\n")
	text.WriteString(data.ResetLink + "\n\n")
	fmt.Fprintf(&text, "The link expires in %s.\n\n", data.ExpiresIn)
	text.WriteString("If you did not ask for this, you can safely ignore this email.\n")

	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(resetHTML, data),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

const layoutHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 28px 32px 20px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #0f766e;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 20px; font-size: 16px; color: #374151;">Hi {{.Name}},</p>
              {{template "body" .}}
              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const activationBodyHTML = `{{define "body"}}
              <p style="margin: 0 0 20px; font-size: 16px; color: #374151;">Your activation code is:</p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 20px; text-align: center;">
                <span style="font-size: 30px; font-weight: 700; letter-spacing: 8px; color: #1f2937; font-family: 'Courier New', monospace;">{{.Code}}</span>
              </div>
{{end}}`

const resetBodyHTML = `{{define "body"}}
              <p style="margin: 0 0 20px; font-size: 16px; color: #374151;">Use the button below to choose a new password.</p>
              <p style="text-align: center;">
                <a href="{{.ResetLink}}" style="display: inline-block; padding: 12px 28px; background-color: #0f766e; color: #ffffff; text-decoration: none; border-radius: 6px;">Reset password</a>
              </p>
{{end}}`
