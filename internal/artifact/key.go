package artifact

import (
	"fmt"
	"strings"

	"github.com/garyjia/invoice-service/internal/document"
	"github.com/garyjia/invoice-service/internal/domain/entity"
)

const maxSlugLen = 50

// Slug lower-cases s, collapses every run of non-alphanumerics into one hyphen,
// trims hyphens at both ends and truncates to 50 characters. An empty result becomes "invoice".
func Slug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if isSlugRune(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	if slug == "" {
		return "invoice"
	}
	return slug
}

func isSlugRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}

// FileName is the object name of an invoice's PDF inside its owner's folder
func FileName(inv *entity.Invoice) string {
	return fmt.Sprintf("invoice-%s-%s-%s.pdf",
		Slug(inv.Customer),
		inv.CreatedAt.UTC().Format("2006-01-02"),
		document.ShortID(inv.ID))
}

// StorageKey is the deterministic blob path of an invoice's PDF
func StorageKey(inv *entity.Invoice) string {
	return inv.UserID + "/" + FileName(inv)
}
