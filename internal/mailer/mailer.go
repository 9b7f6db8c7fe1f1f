// Package mailer sends the transactional emails of the registration system:
// account welcome, event registration confirmation, cancellation notice and
// the day-before reminder.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"log"
	"sort"
	"text/template"

	"github.com/wneessen/go-mail"

	"github.com/udlaevents/eventpass/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

type Sender interface {
	SendWelcome(user models.User) error
	SendEventRegistration(user models.User, event models.Event, dates []models.EventDate) error
	SendRegistrationCanceled(user models.User, event models.Event) error
	SendEventReminder(user models.User, event models.Event, date models.EventDate) error
}

type SMTPMailer struct {
	host      string
	port      int
	sender    string
	password  string
	templates *template.Template
}

func New(host string, port int, sender, password string) (*SMTPMailer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &SMTPMailer{
		host:      host,
		port:      port,
		sender:    sender,
		password:  password,
		templates: templates,
	}, nil
}

func (m *SMTPMailer) send(to, subject, templateName string, data any) error {
	if m.host == "" || m.sender == "" {
		log.Printf("mailer not configured, skipping %q to %s", subject, to)
		return nil
	}

	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", templateName, err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.sender),
		mail.WithPassword(m.password),
		mail.WithSSL(),
	)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

func (m *SMTPMailer) SendWelcome(user models.User) error {
	subject := fmt.Sprintf("Bienvenido %s %s!", user.FirstName, user.LastName)
	return m.send(user.Email, subject, "account_creation.html", map[string]any{
		"FirstName": user.FirstName,
	})
}

func (m *SMTPMailer) SendEventRegistration(user models.User, event models.Event, dates []models.EventDate) error {
	if len(dates) == 0 {
		return nil
	}
	first := firstDate(dates)
	subject := fmt.Sprintf("Hola %s %s, estás oficialmente registrado/a!", user.FirstName, user.LastName)
	return m.send(user.Email, subject, "event_registration.html", map[string]any{
		"FirstName":     user.FirstName,
		"EventName":     event.Name,
		"DayDate":       first.DayDate.Format("02/01/2006"),
		"StartTime":     first.StartTime,
		"EndTime":       first.EndTime,
		"EventLocation": event.Location,
	})
}

func (m *SMTPMailer) SendRegistrationCanceled(user models.User, event models.Event) error {
	subject := fmt.Sprintf("Cancelaste el evento '%s'", event.Name)
	return m.send(user.Email, subject, "registration_canceled.html", map[string]any{
		"FirstName": user.FirstName,
		"EventName": event.Name,
	})
}

func (m *SMTPMailer) SendEventReminder(user models.User, event models.Event, date models.EventDate) error {
	subject := fmt.Sprintf("Hola %s %s, el evento '%s' ya es mañana", user.FirstName, user.LastName, event.Name)
	return m.send(user.Email, subject, "event_reminder.html", map[string]any{
		"FirstName":     user.FirstName,
		"EventName":     event.Name,
		"DayDate":       date.DayDate.Format("02/01/2006"),
		"StartTime":     date.StartTime,
		"EndTime":       date.EndTime,
		"EventLocation": event.Location,
	})
}

func firstDate(dates []models.EventDate) models.EventDate {
	sorted := make([]models.EventDate, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DayDate.Before(sorted[j].DayDate)
	})
	return sorted[0]
}
