package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/faraddouglas/conecsa-api/internal/config"
)

const sendTimeout = 10 * time.Second

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	client   *gomail.Client
	from     string
	renderer *Renderer
	logger   *zap.Logger
}

// NewSMTPMailer configures an SMTP client from cfg.
func NewSMTPMailer(cfg config.MailConfig, renderer *Renderer, logger *zap.Logger) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(sendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From, renderer: renderer, logger: logger}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	body, err := m.renderer.Render(msg.Template, msg.Context)
	if err != nil {
		return err
	}

	out := gomail.NewMsg()
	if err := out.From(m.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextHTML, body)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		m.logger.Error("mail delivery failed", zap.String("template", msg.Template), zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}
	m.logger.Info("mail sent", zap.String("template", msg.Template))
	return nil
}
