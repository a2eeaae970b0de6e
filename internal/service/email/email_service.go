// internal/service/email/email_service.go
package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailSender delivers outgoing mail over SMTP. Implicit TLS on port 465,
// STARTTLS otherwise.
type EmailSender struct {
	smtpHost string
	smtpPort string
	username string
	password string
	fromName string
	secure   bool
}

func NewEmailSender(host, port, user, pass, fromName string, secure bool) *EmailSender {
	return &EmailSender{
		smtpHost: host,
		smtpPort: port,
		username: user,
		password: pass,
		fromName: fromName,
		secure:   secure,
	}
}

// SendVerificationEmail sends the account verification link to a newly
// registered organization admin.
func (e *EmailSender) SendVerificationEmail(to, name, link string) error {
	body := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Welcome to CertHub. Confirm your email address to finish setting up
		your organization:</p>
		<p><a class="button" href="%s">Verify email</a></p>
		<p>If you did not create this account, you can ignore this message.</p>
	`, name, link)
	return e.Send(to, "Verify your CertHub account", body)
}

// SendCertificateIssued notifies a recipient that a certificate was issued to
// them, with the public identifier they can verify it by.
func (e *EmailSender) SendCertificateIssued(to, recipientName, courseName, certificateID, orgName string) error {
	body := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>%s has issued you a certificate for <strong>%s</strong>.</p>
		<p>Your certificate ID is <strong>%s</strong>. Anyone can verify it at
		any time using this identifier.</p>
	`, recipientName, orgName, courseName, certificateID)
	return e.Send(to, fmt.Sprintf("Your certificate from %s", orgName), body)
}

// Send sends one HTML email.
func (e *EmailSender) Send(to, subject, bodyHTML string) error {
	from := fmt.Sprintf("%s <%s>", e.fromName, e.username)
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			wrapLayout(bodyHTML),
	)

	serverAddr := e.smtpHost + ":" + e.smtpPort

	tlsConfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         e.smtpHost,
	}

	if e.secure {
		// Port 465, implicit TLS.
		conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
		if err != nil {
			return fmt.Errorf("tls dial failed: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, e.smtpHost)
		if err != nil {
			return fmt.Errorf("smtp client failed: %w", err)
		}
		defer client.Quit()

		auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth failed: %w", err)
		}

		return e.sendMail(client, to, msg)
	}

	// Port 587, STARTTLS.
	auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)
	if err := smtp.SendMail(serverAddr, auth, e.username, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail failed: %w", err)
	}
	return nil
}

func (e *EmailSender) sendMail(client *smtp.Client, to string, msg []byte) error {
	if err := client.Mail(e.username); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// wrapLayout puts the body into the shared CertHub email frame.
func wrapLayout(content string) string {
	header := `
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8" />
		<title>CertHub</title>
		<style>
			body { font-family: Georgia, serif; background-color: #f7f5f0; padding: 30px; }
			.container { max-width: 600px; margin: auto; background: #fff; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
			.header { background: #1f3a5f; color: white; text-align: center; padding: 20px; font-size: 22px; font-weight: bold; }
			.footer { background: #f1f1f1; color: #555; text-align: center; padding: 15px; font-size: 13px; }
			.body { padding: 25px; color: #333; line-height: 1.6; }
			a.button { display: inline-block; background: #1f3a5f; color: white; padding: 10px 20px; border-radius: 5px; text-decoration: none; }
		</style>
	</head>
	<body>
	<div class="container">
		<div class="header">CertHub</div>
		<div class="body">
	`

	footer := `
		</div>
		<div class="footer">
			<p>© 2026 CertHub. All rights reserved.</p>
		</div>
	</div>
	</body>
	</html>
	`

	return header + strings.TrimSpace(content) + footer
}
