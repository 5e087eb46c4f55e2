// Package mail renders the transactional email templates and hands the messages to an
// SMTP transport.
package mail

import (
	"context"
	"embed"
	"time"

	gomail "github.com/wneessen/go-mail"

	"billify.site/pkg/billify/logging"
)

const (
	TemplateAccountVerification = "account-verification"
	TemplateWelcome             = "welcome"

	sendTimeout = 10 * time.Second
	emailsTotal = "app_emails_total"
)

//go:embed templates
var templateFS embed.FS

// Payload is the data available to every template.
type Payload struct {
	Name string
	Link string
}

type Message struct {
	To       string
	Subject  string
	Template string
	Payload  Payload
}

// Sender delivers transactional emails. Delivery failures are logged, never returned:
// a lost email must not fail the request that triggered it.
type Sender interface {
	Send(ctx context.Context, msg Message)
}

// Dialer is the transport side of go-mail's Client.
type Dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

type Metrics interface {
	IncrementCounter(ctx context.Context, name string, labels ...string)
}

type Mailer struct {
	from      string
	dialer    Dialer
	templates *templates
	logger    logging.Logger
	metrics   Metrics
}

//nolint:gochecknoglobals // shared logger binding
var child = logging.NewChild(logging.Fields{"service": "email"})

func NewMailer(from string, dialer Dialer, logger logging.Logger, metrics Metrics) (*Mailer, error) {
	t, err := parseTemplates(templateFS)
	if err != nil {
		return nil, err
	}

	return &Mailer{from: from, dialer: dialer, templates: t, logger: logger, metrics: metrics}, nil
}

func (m *Mailer) Send(ctx context.Context, msg Message) {
	logger := child.ForLogger(ctx, m.logger)

	mail, err := m.build(msg)
	if err == nil {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = m.dialer.DialAndSendWithContext(sendCtx, mail)

		cancel()
	}

	if err != nil {
		logger.Errorf("email error: %v", err)
		m.metrics.IncrementCounter(ctx, emailsTotal, "template", msg.Template, "result", "failed")

		return
	}

	logger.Debugf("email %s sent", msg.Template)
	m.metrics.IncrementCounter(ctx, emailsTotal, "template", msg.Template, "result", "sent")
}

func (m *Mailer) build(msg Message) (*gomail.Msg, error) {
	html, text, err := m.templates.lookup(msg.Template)
	if err != nil {
		return nil, err
	}

	mail := gomail.NewMsg()

	if err = mail.From(m.from); err != nil {
		return nil, err
	}

	if err = mail.To(msg.To); err != nil {
		return nil, err
	}

	mail.Subject(msg.Subject)

	if err = mail.SetBodyHTMLTemplate(html, msg.Payload); err != nil {
		return nil, err
	}

	if err = mail.AddAlternativeTextTemplate(text, msg.Payload); err != nil {
		return nil, err
	}

	return mail, nil
}

// SMTPConfig describes the SMTP relay. Without credentials the connection is made
// without authentication and without TLS, which is what local relays such as MailHog
// expect.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

func NewSMTPClient(c SMTPConfig) (*gomail.Client, error) {
	opts := []gomail.Option{gomail.WithPort(c.Port)}

	if c.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(c.Username),
			gomail.WithPassword(c.Password),
			gomail.WithTLSPolicy(gomail.TLSMandatory),
		)
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	return gomail.NewClient(c.Host, opts...)
}
