package port

import (
	"context"

	"github.com/garyjia/invoice-service/internal/domain/entity"
)

// TokenVerifier resolves a bearer token to the authenticated user id
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// MailMessage is an outbound email with HTML and plain-text bodies
type MailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers outbound email
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// DocumentRenderer turns an invoice snapshot into PDF bytes
type DocumentRenderer interface {
	Render(inv *entity.Invoice, branding entity.Branding) ([]byte, error)
}

// DocumentPreviewer rasterizes the first page of a PDF to PNG
type DocumentPreviewer interface {
	PNG(pdf []byte) ([]byte, error)
}
