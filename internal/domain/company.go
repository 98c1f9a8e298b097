package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Company is the owning scope of every equity record.
// The core only needs its identity and owning tenant, both served by the Company Directory.
type Company struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
}

// Actor identifies the user performing an operation, for audit attribution and tenant scoping
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
}

// VisibleTo reports whether the actor may see the company.
// A zero TenantID on the actor means the caller already resolved tenancy.
func (c *Company) VisibleTo(actor Actor) bool {
	if actor.TenantID == uuid.Nil {
		return true
	}
	return c.TenantID == actor.TenantID
}

// Validate ensures the company adheres to domain rules
func (c *Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", c.Name, "company name cannot be empty")
	}
	return nil
}
