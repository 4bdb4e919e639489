package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"soko_backend/internal/config"
	"soko_backend/internal/models"
)

// Notifier tells a seller about a verification decision. Sending is
// best-effort: a mail failure never rolls back the decision.
type Notifier interface {
	SendDecision(seller *models.Seller) error
}

type smtpNotifier struct {
	cfg *config.Config
}

func NewSMTPNotifier(cfg *config.Config) Notifier {
	return &smtpNotifier{cfg: cfg}
}

func (n *smtpNotifier) SendDecision(seller *models.Seller) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.cfg.SMTP.FromEmail, n.cfg.SMTP.FromName))
	m.SetHeader("To", seller.Email)
	m.SetHeader("Subject", subjectFor(seller))
	m.SetBody("text/html", bodyFor(seller))

	d := gomail.NewDialer(
		n.cfg.SMTP.Host,
		n.cfg.SMTP.Port,
		n.cfg.SMTP.Username,
		n.cfg.SMTP.Password,
	)

	return d.DialAndSend(m)
}

func subjectFor(seller *models.Seller) string {
	switch seller.Status {
	case models.SellerStatusApproved:
		return "Your seller application has been approved"
	case models.SellerStatusRejected:
		return "Update on your seller application"
	default:
		return "Your seller application is under review"
	}
}

func bodyFor(seller *models.Seller) string {
	switch seller.Status {
	case models.SellerStatusApproved:
		return fmt.Sprintf("<p>Hi %s,</p><p>Your application for <b>%s</b> has been approved. You can now start selling.</p>",
			seller.ContactName, seller.BusinessName)
	case models.SellerStatusRejected:
		reason := "Please review your application details and try again."
		if seller.RejectionReason != nil && *seller.RejectionReason != "" {
			reason = *seller.RejectionReason
		}
		return fmt.Sprintf("<p>Hi %s,</p><p>Your application for <b>%s</b> was not approved.</p><p>Reason: %s</p><p>You may submit a new application at any time.</p>",
			seller.ContactName, seller.BusinessName, reason)
	default:
		return fmt.Sprintf("<p>Hi %s,</p><p>Your application for <b>%s</b> is back under review.</p>",
			seller.ContactName, seller.BusinessName)
	}
}

// NoopNotifier is used when SMTP is not configured.
type NoopNotifier struct{}

func (NoopNotifier) SendDecision(*models.Seller) error { return nil }
