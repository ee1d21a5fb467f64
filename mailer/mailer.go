// Package mailer sends transactional order emails. Delivery is best-effort
// and never gates the request that triggered it.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"sync"

	"go.uber.org/zap"
)

// Options contains the configuration for the Mailer
type Options struct {
	SMTPAuth   smtp.Auth
	Hostname   string // host:port of the SMTP server
	From       string
	AdminEmail string
	Logger     *zap.Logger
}

// Mailer dispatches notification emails over SMTP
type Mailer struct {
	Options
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New will create a Mailer instance
func New(option Options) (*Mailer, error) {
	if len(option.Hostname) == 0 {
		return nil, fmt.Errorf("empty Hostname is invalid")
	}
	if len(option.From) == 0 {
		return nil, fmt.Errorf("empty From is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Mailer{
		Options:  option,
		sendMail: smtp.SendMail,
	}, nil
}

// OrderNotification carries what the confirmation emails need to say.
type OrderNotification struct {
	OrderID       string
	CustomerName  string
	CustomerEmail string
	TotalAmount   int64
}

type envelope struct {
	to      string
	subject string
	body    string
}

// SendOrderEmails dispatches the customer and admin notifications
// concurrently and waits for both to settle. A failed send is logged and
// swallowed; one failure does not cancel the other send, and the caller
// never sees an error.
func (m *Mailer) SendOrderEmails(ctx context.Context, n OrderNotification) {
	envelopes := []envelope{
		{
			to:      n.CustomerEmail,
			subject: fmt.Sprintf("Order confirmed - #%s", n.OrderID),
			body: fmt.Sprintf("Hi %s,\r\n\r\nThank you for your order!\r\n\r\n"+
				"Order ID: %s\r\nTotal: Rs %d\r\n\r\n"+
				"We will send you another email when your order ships.\r\n",
				n.CustomerName, n.OrderID, n.TotalAmount),
		},
		{
			to:      m.AdminEmail,
			subject: fmt.Sprintf("New order received - #%s", n.OrderID),
			body: fmt.Sprintf("New order received.\r\n\r\n"+
				"Customer: %s <%s>\r\nOrder ID: %s\r\nTotal: Rs %d\r\n",
				n.CustomerName, n.CustomerEmail, n.OrderID, n.TotalAmount),
		},
	}

	var wg sync.WaitGroup
	for _, e := range envelopes {
		if len(e.to) == 0 {
			continue
		}
		wg.Add(1)
		go func(e envelope) {
			defer wg.Done()
			if err := m.send(e); err != nil {
				m.Logger.Error("Unable to send order email",
					zap.String("To", e.to),
					zap.String("OrderID", n.OrderID),
					zap.Error(err),
				)
			}
		}(e)
	}
	wg.Wait()
}

// ContactMessage is a contact-form submission relayed to the admin inbox.
type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// SendContactEmail relays a contact-form submission to the admin inbox.
// Unlike order notifications, the caller needs to know delivery failed so
// the frontend can tell the visitor to try again.
func (m *Mailer) SendContactEmail(ctx context.Context, c ContactMessage) error {
	if len(m.AdminEmail) == 0 {
		return fmt.Errorf("no admin recipient configured")
	}
	return m.send(envelope{
		to:      m.AdminEmail,
		subject: c.Subject,
		body: fmt.Sprintf("Name: %s\r\nEmail: %s\r\nPhone: %s\r\n\r\n%s\r\n",
			c.Name, c.Email, c.Phone, c.Message),
	})
}

func (m *Mailer) send(e envelope) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n"+
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		m.From, e.to, e.subject, e.body)
	return m.sendMail(m.Hostname, m.SMTPAuth, m.From, []string{e.to}, []byte(msg))
}
