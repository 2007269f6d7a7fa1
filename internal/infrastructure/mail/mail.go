// Package mail delivers the temporary password email over SMTP.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/ecosrev/ecosrev-api/internal/api/metrics"
)

const resetSubject = "EcosRev - Recuperação de senha"

var resetTpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
    <h2>Recuperação de senha</h2>
    <p>Recebemos um pedido para redefinir a senha da sua conta EcosRev.</p>
    <p>Sua senha temporária é: <strong>{{.Password}}</strong></p>
    <p>Ela expira em {{.Validity}}. Ao entrar, cadastre uma nova senha.</p>
    <p>Se você não fez este pedido, ignore este email.</p>
</body>
</html>
`))

// ErrNotConfigured is returned when no SMTP host was given.
var ErrNotConfigured = errors.New("mail: smtp host not configured")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Validity is shown to the user next to the temporary password.
	Validity time.Duration
}

// SMTPMailer implements ports.Mailer.
type SMTPMailer struct {
	cfg    Config
	client *gomail.Client
	log    zerolog.Logger
}

// NewSMTPMailer builds the client. Without a host every send fails with
// ErrNotConfigured, which callers treat like any other delivery failure.
func NewSMTPMailer(cfg Config, log zerolog.Logger) (*SMTPMailer, error) {
	m := &SMTPMailer{cfg: cfg, log: log}
	if cfg.Host == "" {
		return m, nil
	}

	opts := []gomail.Option{gomail.WithPort(cfg.Port), gomail.WithTimeout(10 * time.Second)}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		)
	}
	c, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: new client: %w", err)
	}
	m.client = c
	return m, nil
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, temporaryPassword string) error {
	if m.client == nil {
		metrics.PasswordResetEmailsTotal.WithLabelValues("failed").Inc()
		return ErrNotConfigured
	}

	msg, err := m.buildPasswordReset(to, temporaryPassword)
	if err != nil {
		metrics.PasswordResetEmailsTotal.WithLabelValues("failed").Inc()
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		metrics.PasswordResetEmailsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("mail: send: %w", err)
	}

	metrics.PasswordResetEmailsTotal.WithLabelValues("sent").Inc()
	m.log.Debug().Str("to", to).Msg("password reset email sent")
	return nil
}

func (m *SMTPMailer) buildPasswordReset(to, temporaryPassword string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	msg.Subject(resetSubject)

	validity := m.cfg.Validity
	if validity <= 0 {
		validity = time.Hour
	}
	var body bytes.Buffer
	err := resetTpl.Execute(&body, struct {
		Password string
		Validity string
	}{Password: temporaryPassword, Validity: humanize(validity)})
	if err != nil {
		return nil, fmt.Errorf("mail: render: %w", err)
	}
	msg.SetBodyString(gomail.TypeTextHTML, body.String())
	return msg, nil
}

func humanize(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hora"
		}
		return fmt.Sprintf("%d horas", h)
	}
	return fmt.Sprintf("%d minutos", int(d/time.Minute))
}
