// Package mailer delivers event passes over SMTP with the QR image
// embedded inline via a content-id reference.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/farewellhq/event-pass-api/pkg/config"
)

const qrContentID = "qr-code@farewell"

// PassEmail carries everything needed to render and send one pass.
type PassEmail struct {
	Name         string
	Email        string
	RollNumber   string
	ClassSection string
	QRImage      []byte
}

var passTemplate = template.Must(template.New("pass").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Your Farewell Pass</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f6f9fc;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 40px; border-radius: 10px;">
    <div style="text-align: center; margin-bottom: 30px;">
      <h1 style="color: #1a73e8; margin: 0; font-size: 28px;">Your Farewell Pass</h1>
    </div>
    <p style="color: #4a4a4a; font-size: 16px; line-height: 1.5;">Dear {{.Name}},</p>
    <p style="color: #4a4a4a; font-size: 16px; line-height: 1.5;">Here is your QR code pass for the farewell event. Please keep this email and present the QR code at the entrance.</p>
    <div style="text-align: center; margin: 40px 0; padding: 20px; border: 2px solid #e0e0e0; border-radius: 8px;">
      <img src="cid:qr-code@farewell" alt="QR Code Pass" style="width: 250px; height: 250px;">
    </div>
    <div style="background-color: #f8f9fa; border-radius: 8px; padding: 20px; margin: 20px 0;">
      <h3 style="color: #1a73e8; margin: 0 0 15px 0;">Pass Details</h3>
      <table style="width: 100%; border-collapse: collapse;">
        <tr><td style="padding: 8px 0; font-weight: bold;">Name:</td><td style="padding: 8px 0;">{{.Name}}</td></tr>
        <tr><td style="padding: 8px 0; font-weight: bold;">Email:</td><td style="padding: 8px 0;">{{.Email}}</td></tr>
        <tr><td style="padding: 8px 0; font-weight: bold;">Roll Number:</td><td style="padding: 8px 0;">{{.RollNumber}}</td></tr>
        {{if .ClassSection}}<tr><td style="padding: 8px 0; font-weight: bold;">Class/Section:</td><td style="padding: 8px 0;">{{.ClassSection}}</td></tr>{{end}}
      </table>
    </div>
    <p style="color: #4a4a4a; font-size: 16px; line-height: 1.5;">If you have any questions, please contact the event organizers.</p>
    <div style="text-align: center; margin-top: 30px; padding-top: 20px; border-top: 1px solid #e0e0e0;">
      <p style="color: #888888; font-size: 14px;">This is an automated email. Please do not reply.</p>
    </div>
  </div>
</body>
</html>`))

// Mailer sends pass emails through a single SMTP account.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	subject string
}

// New builds a Mailer from SMTP configuration.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		subject: cfg.Subject,
	}
}

// SendPass renders the pass template and delivers it synchronously.
// The QR image rides along as an inline attachment referenced by cid.
func (m *Mailer) SendPass(ctx context.Context, pass PassEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := renderBody(pass)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", pass.Email)
	msg.SetHeader("Subject", m.subject)
	msg.SetBody("text/html", body)
	msg.Embed("qr-code.png",
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pass.QRImage)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-ID": {fmt.Sprintf("<%s>", qrContentID)}}),
	)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send pass email to %s: %w", pass.Email, err)
	}
	return nil
}

func renderBody(pass PassEmail) (string, error) {
	buf := &bytes.Buffer{}
	if err := passTemplate.Execute(buf, pass); err != nil {
		return "", fmt.Errorf("render pass email: %w", err)
	}
	return buf.String(), nil
}
