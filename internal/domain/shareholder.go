package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ShareholderType represents the kind of party holding equity
type ShareholderType string

const (
	ShareholderTypeFounder  ShareholderType = "FOUNDER"
	ShareholderTypeInvestor ShareholderType = "INVESTOR"
	ShareholderTypeEmployee ShareholderType = "EMPLOYEE"
	ShareholderTypeAdvisor  ShareholderType = "ADVISOR"
	ShareholderTypeESOP     ShareholderType = "ESOP"
	ShareholderTypeOther    ShareholderType = "OTHER"
)

// ShareholderTypes lists every holder type in presentation order
var ShareholderTypes = []ShareholderType{
	ShareholderTypeFounder,
	ShareholderTypeInvestor,
	ShareholderTypeEmployee,
	ShareholderTypeAdvisor,
	ShareholderTypeESOP,
	ShareholderTypeOther,
}

// DocumentType represents the kind of tax/identity document of a shareholder
type DocumentType string

const (
	DocumentTypeCPF      DocumentType = "CPF"
	DocumentTypeCNPJ     DocumentType = "CNPJ"
	DocumentTypePassport DocumentType = "PASSPORT"
	DocumentTypeOther    DocumentType = "OTHER"
)

// ShareholderStatus represents the lifecycle state of a shareholder
type ShareholderStatus string

const (
	ShareholderStatusActive    ShareholderStatus = "ACTIVE"
	ShareholderStatusSuspended ShareholderStatus = "SUSPENDED"
	ShareholderStatusInactive  ShareholderStatus = "INACTIVE"
	ShareholderStatusDeleted   ShareholderStatus = "DELETED"
)

// Shareholder represents a party holding equity in one company
type Shareholder struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Name         string
	Document     string // Digits only for CPF/CNPJ; unique per company among non-deleted holders
	DocumentType DocumentType
	Type         ShareholderType
	Email        string
	Phone        string
	Address      string
	Status       ShareholderStatus
	CreatedAt    time.Time
	CreatedBy    uuid.UUID
	UpdatedAt    time.Time
}

// NormalizeDocument strips everything but digits from a tax document.
// Passports keep letters, uppercased, since they are alphanumeric.
func NormalizeDocument(document string, docType DocumentType) string {
	var b strings.Builder
	for _, r := range document {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case docType == DocumentTypePassport && unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Validate ensures the shareholder adheres to domain rules
func (s *Shareholder) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", s.Name, "shareholder name cannot be empty")
	}

	doc := NormalizeDocument(s.Document, s.DocumentType)
	switch s.DocumentType {
	case DocumentTypeCPF:
		if len(doc) != 11 {
			return NewValidationError("document", s.Document, "CPF must have 11 digits")
		}
	case DocumentTypeCNPJ:
		if len(doc) != 14 {
			return NewValidationError("document", s.Document, "CNPJ must have 14 digits")
		}
	case DocumentTypePassport, DocumentTypeOther:
		if doc == "" {
			return NewValidationError("document", s.Document, "document cannot be empty")
		}
	default:
		return NewValidationError("document_type", s.DocumentType, "document type must be CPF, CNPJ, PASSPORT or OTHER")
	}

	switch s.Type {
	case ShareholderTypeFounder, ShareholderTypeInvestor, ShareholderTypeEmployee,
		ShareholderTypeAdvisor, ShareholderTypeESOP, ShareholderTypeOther:
	default:
		return NewValidationError("type", s.Type, "unknown shareholder type")
	}

	switch s.Status {
	case ShareholderStatusActive, ShareholderStatusSuspended, ShareholderStatusInactive, ShareholderStatusDeleted:
	default:
		return NewValidationError("status", s.Status, "unknown shareholder status")
	}

	return nil
}
