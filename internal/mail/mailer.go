// Package mail renders templated messages and delivers them.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is one outgoing email. Template names a file under templates/ without extension.
type Message struct {
	To       string
	Subject  string
	Template string
	Context  map[string]any
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Renderer executes the embedded message templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("mail").Option("missingkey=error").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render executes template name with data.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// LogMailer renders messages and writes them to the log instead of sending them.
type LogMailer struct {
	renderer *Renderer
	logger   *zap.Logger
}

// NewLogMailer builds a mailer for environments without SMTP.
func NewLogMailer(renderer *Renderer, logger *zap.Logger) *LogMailer {
	return &LogMailer{renderer: renderer, logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	body, err := m.renderer.Render(msg.Template, msg.Context)
	if err != nil {
		return err
	}
	m.logger.Info("mail not sent; smtp not configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template))
	m.logger.Debug("mail body", zap.String("body", body))
	return nil
}
