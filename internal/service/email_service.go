package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/coursebook/internal/config"
	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg      *config.EmailConfig
	siteName string
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig, siteName string) *EmailService {
	return &EmailService{cfg: cfg, siteName: siteName}
}

// SetConfig 更新运行时邮件配置
func (s *EmailService) SetConfig(cfg *config.EmailConfig) {
	if cfg == nil {
		return
	}
	s.cfg = cfg
}

// BookingStatusEmailInput 预订状态邮件输入
type BookingStatusEmailInput struct {
	ConfirmationCode string
	Status           string
	CourseName       string
	VenueName        string
	StartAt          time.Time
	Participants     int
	Amount           models.Money
	Currency         string
	InvoiceNo        string
}

// SendBookingStatusEmail 发送预订状态通知
func (s *EmailService) SendBookingStatusEmail(toEmail string, input BookingStatusEmailInput) error {
	subject, body := buildBookingStatusContent(s.siteName, input)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendCustomEmail 发送测试邮件或自定义邮件
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "SMTP test email"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "This is an SMTP test email. If you are reading this, the mail configuration works."
	}
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

func buildBookingStatusContent(siteName string, input BookingStatusEmailInput) (string, string) {
	if siteName == "" {
		siteName = "Course Booking"
	}
	when := input.StartAt.Format("Monday 2 January 2006, 15:04")
	amount := fmt.Sprintf("%s %s", input.Amount.StringFixed(2), strings.ToUpper(strings.TrimSpace(input.Currency)))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Booking reference: %s\n", input.ConfirmationCode)
	fmt.Fprintf(&buf, "Course: %s\n", input.CourseName)
	if input.VenueName != "" {
		fmt.Fprintf(&buf, "Venue: %s\n", input.VenueName)
	}
	fmt.Fprintf(&buf, "Date: %s\n", when)
	fmt.Fprintf(&buf, "Participants: %d\n", input.Participants)
	fmt.Fprintf(&buf, "Total: %s\n", amount)

	status := strings.ToLower(strings.TrimSpace(input.Status))
	switch status {
	case constants.BookingStatusConfirmed:
		subject := fmt.Sprintf("[%s] Booking %s confirmed", siteName, input.ConfirmationCode)
		if input.InvoiceNo != "" {
			fmt.Fprintf(&buf, "Invoice: %s\n", input.InvoiceNo)
		}
		buf.WriteString("\nYour payment has been received and your places are confirmed. Please arrive 15 minutes before the start time.")
		return subject, buf.String()
	case constants.BookingStatusCancelled:
		subject := fmt.Sprintf("[%s] Booking %s cancelled", siteName, input.ConfirmationCode)
		buf.WriteString("\nYour booking has been cancelled. If a refund is due it will be returned to your original payment method within 5-10 working days.")
		return subject, buf.String()
	case constants.BookingStatusCompleted:
		subject := fmt.Sprintf("[%s] Thank you for attending", siteName)
		buf.WriteString("\nThank you for attending. Any certificates will be issued separately by your trainer.")
		return subject, buf.String()
	default:
		subject := fmt.Sprintf("[%s] Booking %s received", siteName, input.ConfirmationCode)
		buf.WriteString("\nWe have received your booking. It will be confirmed once payment completes.")
		return subject, buf.String()
	}
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
