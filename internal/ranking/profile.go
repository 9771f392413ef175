package ranking

import (
	"strings"

	"github.com/hyperjump/voxa/internal/models"
)

// ProfileText composes the text embedded for a business: name, industry, description,
// specialties, tags, location, space separated, in that order.
func ProfileText(b *models.Business) string {
	parts := []string{
		b.Name,
		b.Industry,
		b.Description,
		strings.Join(b.Specialties, " "),
		strings.Join(b.Tags, " "),
		b.Location,
	}
	return strings.Join(parts, " ")
}
