package session

import (
	"strings"

	"github.com/dmitrijs2005/insightpulse/internal/models"
)

// RoleForEmail derives the session role from the sign-in address: "admin"
// anywhere in it gives admin, otherwise "analyst" gives analyst, otherwise
// viewer. Matching is case-sensitive. The role stored on the backend record
// is deliberately not consulted.
func RoleForEmail(email string) models.Role {
	switch {
	case strings.Contains(email, "admin"):
		return models.RoleAdmin
	case strings.Contains(email, "analyst"):
		return models.RoleAnalyst
	default:
		return models.RoleViewer
	}
}
