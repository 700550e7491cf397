// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendReviewRequested(toEmail, gate, artifactPath string, total int64) error
	SendSetsDispatched(toEmail string, train, validation, test int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendReviewRequested(toEmail, gate, artifactPath string, total int64) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Review requested: %s gate", gate))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>The pipeline is waiting on you</h2>
			<p>The <b>%s</b> gate has rendered a report over <b>%d</b> pending sessions.</p>
			<p>Report artifact: <code>%s</code></p>
			<p>The pipeline stays paused until you submit an approve/reject decision.</p>
		</div>
	`, gate, total, artifactPath)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send review request to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Review request sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendSetsDispatched(toEmail string, train, validation, test int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Learning sets dispatched")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Learning sets delivered</h2>
			<p>Both gates approved and the partitioned sets were acknowledged by the development system.</p>
			<ul>
				<li>Train: %d sessions</li>
				<li>Validation: %d sessions</li>
				<li>Test: %d sessions</li>
			</ul>
			<p>The pipeline is collecting again for the next batch.</p>
		</div>
	`, train, validation, test)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send dispatch summary to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Dispatch summary sent to %s\n", toEmail)
	return nil
}
