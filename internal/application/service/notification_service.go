package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/document"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/money"
	"github.com/garyjia/invoice-service/pkg/utils"
)

// SendResult reports where an invoice was sent
type SendResult struct {
	To       string `json:"to"`
	ShareURL string `json:"share_url"`
}

// NotificationService sends invoices to clients
type NotificationService interface {
	// SendInvoice mails a share link to to, or to the invoice's client email when to is empty
	SendInvoice(ctx context.Context, userID, id, to string) (*SendResult, error)
}

type notificationServiceImpl struct {
	invoices    InvoiceService
	documents   DocumentService
	profileRepo port.ProfileRepository
	mailer      port.Mailer
	logger      Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	invoices InvoiceService,
	documents DocumentService,
	profileRepo port.ProfileRepository,
	mailer port.Mailer,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		invoices:    invoices,
		documents:   documents,
		profileRepo: profileRepo,
		mailer:      mailer,
		logger:      logger,
	}
}

func (s *notificationServiceImpl) SendInvoice(ctx context.Context, userID, id, to string) (*SendResult, error) {
	inv, err := s.invoices.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	recipient := strings.TrimSpace(to)
	if recipient == "" {
		recipient = inv.ClientEmail
	}
	if recipient == "" {
		return nil, apperror.New(apperror.KindValidationFailed, "invoice has no client_email; provide a recipient")
	}
	if err := utils.ValidateEmail(recipient); err != nil {
		return nil, apperror.Wrap(apperror.KindValidationFailed, err, "recipient is not a valid address")
	}

	link, err := s.documents.Share(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	sender := inv.CompanyName
	if name := profile.Branding().Name; name != nil && *name != "" {
		sender = *name
	}

	msg := buildInvoiceMessage(inv, sender, recipient, link.URL)
	s.logger.Info("Sending invoice", "invoice_id", id, "to", recipient)

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send invoice", "error", err, "invoice_id", id, "to", recipient)
		return nil, fmt.Errorf("send invoice: %w", err)
	}

	s.logger.Info("Invoice sent", "invoice_id", id, "to", recipient)
	return &SendResult{To: recipient, ShareURL: link.URL}, nil
}

func buildInvoiceMessage(inv *entity.Invoice, sender, to, url string) port.MailMessage {
	number := document.ShortID(inv.ID)
	total := money.Format(inv.Amount, inv.Currency)

	subject := fmt.Sprintf("Invoice %s for %s", number, total)
	if sender != "" {
		subject = fmt.Sprintf("Invoice %s from %s", number, sender)
	}

	lines := []string{
		fmt.Sprintf("Hello %s,", inv.Customer),
		fmt.Sprintf("Invoice %s for %s is ready.", number, total),
	}
	if inv.DueDate != "" {
		lines = append(lines, "Payment is due by "+inv.DueDate+".")
	}
	lines = append(lines, "Download it here (link valid for 7 days):", url)

	var body strings.Builder
	for _, line := range lines[:len(lines)-1] {
		body.WriteString("<p>" + html.EscapeString(line) + "</p>")
	}
	body.WriteString(fmt.Sprintf(`<p><a href="%s">%s</a></p>`, html.EscapeString(url), html.EscapeString(url)))

	return port.MailMessage{
		To:      to,
		Subject: subject,
		HTML:    body.String(),
		Text:    strings.Join(lines, "\n"),
	}
}
