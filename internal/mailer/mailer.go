// Package mailer sends back-office alert mail over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/go-faster/errors"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
)

// Config holds SMTP settings and the alert recipient.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// AdminEmail receives low-stock alerts.
	AdminEmail string
}

// Sender delivers a low-stock alert. Satisfied by Mailer; tests substitute
// a recorder.
type Sender interface {
	SendLowStockAlert(items []catalog.Item) error
}

var _ Sender = (*Mailer)(nil)

// Mailer sends mail through a plain-auth SMTP relay.
type Mailer struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a Mailer with the given SMTP configuration.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// SendLowStockAlert mails the admin a plain-text restock report grouped by
// category.
func (m *Mailer) SendLowStockAlert(items []catalog.Item) error {
	if len(items) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Low Stock Alert - %d items need restocking", len(items))
	msg := buildMessage(m.cfg.From, m.cfg.AdminEmail, subject, LowStockBody(items))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := m.send(addr, auth, m.cfg.From, []string{m.cfg.AdminEmail}, msg); err != nil {
		return errors.Wrap(err, "send mail")
	}
	return nil
}

// LowStockBody renders the alert text: one section per category, lowest
// stock first within the input ordering.
func LowStockBody(items []catalog.Item) string {
	grouped := catalog.GroupByCategory(items)

	var b strings.Builder
	b.WriteString("The following items are running low on stock:\n")
	for _, cat := range catalog.Categories() {
		section := grouped[cat]
		if len(section) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(string(cat)[:1])+string(cat)[1:])
		for _, item := range section {
			fmt.Fprintf(&b, "  - %s: %d remaining (threshold: %d)\n", item.Name, item.Stock, item.Threshold)
		}
	}
	b.WriteString("\nPlease restock these items as soon as possible.\n")
	return b.String()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
