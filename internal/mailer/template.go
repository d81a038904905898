package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// CertificateEmailData fills the notification template for one recipient.
type CertificateEmailData struct {
	Name            string
	EventName       string
	CertificateID   string
	VerificationURL string
	OrganizerName   string
	CustomMessage   string
}

var certificateTmpl = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #f5f5f5;">
  <table width="100%" cellpadding="0" cellspacing="0" style="padding: 40px 20px;">
    <tr><td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="background: #fff; border-radius: 16px; overflow: hidden; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
        <tr>
          <td style="background: linear-gradient(135deg, #f97316, #ea580c); padding: 48px 40px; text-align: center;">
            <h1 style="color: #fff; margin: 0; font-size: 32px;">🎉 Congratulations!</h1>
            <p style="color: rgba(255,255,255,0.9); margin: 12px 0 0; font-size: 16px;">You've earned a certificate</p>
          </td>
        </tr>
        <tr>
          <td style="padding: 48px 40px;">
            <p style="font-size: 18px; color: #333; margin: 0 0 24px;">Dear <strong>{{.Name}}</strong>,</p>
            <p style="font-size: 16px; color: #666; margin: 0 0 16px; line-height: 1.6;">You have been awarded a certificate for successfully completing</p>
            <p style="font-size: 24px; color: #f97316; margin: 0 0 24px; font-weight: 700; text-align: center;">{{.EventName}}</p>
            {{if .CustomMessage}}<p style="font-size: 15px; color: #555; line-height: 1.6; margin: 24px 0; padding: 20px; background: #fef3c7; border-radius: 12px; border-left: 4px solid #f59e0b;">💬 <em>{{.CustomMessage}}</em></p>{{end}}
            <table width="100%" style="background: #f8f9fa; border-radius: 12px; margin-bottom: 32px;">
              <tr>
                <td style="padding: 20px;">
                  <p style="font-size: 11px; color: #999; margin: 0 0 8px; text-transform: uppercase; letter-spacing: 1px;">Certificate ID</p>
                  <code style="font-size: 14px; color: #333; font-family: monospace;">{{.CertificateID}}</code>
                </td>
              </tr>
            </table>
            <table width="100%"><tr><td align="center">
              <a href="{{.VerificationURL}}" style="display: inline-block; background: linear-gradient(135deg, #f97316, #ea580c); color: #fff; text-decoration: none; padding: 18px 48px; border-radius: 10px; font-weight: 700; font-size: 16px; box-shadow: 0 4px 14px rgba(249,115,22,0.4);">View &amp; Download Certificate</a>
            </td></tr></table>
            <p style="font-size: 14px; color: #999; margin: 32px 0 0; text-align: center;">💼 Add this credential to your LinkedIn profile!</p>
          </td>
        </tr>
        <tr>
          <td style="background: #f8f9fa; padding: 24px; text-align: center; border-top: 1px solid #eee;">
            <p style="font-size: 14px; color: #666; margin: 0 0 8px;">Issued by <strong>{{.OrganizerName}}</strong></p>
            <p style="font-size: 12px; color: #999; margin: 0;">Powered by <span style="color: #f97316; font-weight: 600;">CertCat</span></p>
          </td>
        </tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

// BuildCertificateEmail renders the notification subject and HTML body.
func BuildCertificateEmail(data CertificateEmailData) (subject, html string, err error) {
	var buf bytes.Buffer
	if err := certificateTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render email template: %w", err)
	}
	return fmt.Sprintf("🎉 Your Certificate for %s", data.EventName), buf.String(), nil
}
