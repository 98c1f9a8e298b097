package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AntiDilutionKind represents the anti-dilution protection of a share class
type AntiDilutionKind string

const (
	AntiDilutionNone            AntiDilutionKind = "NONE"
	AntiDilutionFullRatchet     AntiDilutionKind = "FULL_RATCHET"
	AntiDilutionWeightedAverage AntiDilutionKind = "WEIGHTED_AVERAGE"
)

// ShareClassStatus represents the lifecycle state of a share class
type ShareClassStatus string

const (
	ShareClassStatusActive   ShareClassStatus = "ACTIVE"
	ShareClassStatusInactive ShareClassStatus = "INACTIVE"
	ShareClassStatusDeleted  ShareClassStatus = "DELETED"
)

// Rights holds the contractual rights attached to a share class.
// Stored as a document by the persistence layer; the core only sees this typed value.
type Rights struct {
	TagAlongPercentage decimal.Decimal `json:"tag_along_percentage"`
	DragAlong          bool            `json:"drag_along"`
	Preemptive         bool            `json:"preemptive"`
	InformationRights  bool            `json:"information_rights"`
	BoardSeats         int             `json:"board_seats"`
}

// ShareClass represents a class of equity (common, preferred series) of one company
type ShareClass struct {
	ID                    uuid.UUID
	CompanyID             uuid.UUID
	Name                  string
	Code                  string // Unique per company, case-insensitive, among non-deleted classes
	Description           string
	HasVotingRights       bool
	VotesPerShare         decimal.Decimal
	LiquidationPreference decimal.Decimal // Multiple of the invested amount (1x, 1.5x...)
	IsParticipating       bool
	DividendPreference    *decimal.Decimal // Optional, percentage
	IsConvertible         bool
	ConvertsToClassID     *uuid.UUID
	ConversionRatio       *decimal.Decimal
	AntiDilution          AntiDilutionKind
	Rights                Rights
	DisplayOrder          int
	Status                ShareClassStatus
	CreatedAt             time.Time
	CreatedBy             uuid.UUID
	UpdatedAt             time.Time
}

// NormalizeClassCode returns the canonical form used for uniqueness checks
func NormalizeClassCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsActive reports whether new shares may be issued in this class
func (sc *ShareClass) IsActive() bool {
	return sc.Status == ShareClassStatusActive
}

// Votes returns the number of votes carried by the given quantity of shares
func (sc *ShareClass) Votes(quantity decimal.Decimal) decimal.Decimal {
	if !sc.HasVotingRights {
		return decimal.Zero
	}
	return quantity.Mul(sc.VotesPerShare)
}

// Validate ensures the share class adheres to domain rules
func (sc *ShareClass) Validate() error {
	if strings.TrimSpace(sc.Name) == "" {
		return NewValidationError("name", sc.Name, "share class name cannot be empty")
	}
	if NormalizeClassCode(sc.Code) == "" {
		return NewValidationError("code", sc.Code, "share class code cannot be empty")
	}
	if sc.VotesPerShare.LessThan(decimal.Zero) {
		return NewValidationError("votes_per_share", sc.VotesPerShare, "votes per share cannot be negative")
	}
	if sc.HasVotingRights && sc.VotesPerShare.IsZero() {
		return NewValidationError("votes_per_share", sc.VotesPerShare, "voting class must carry at least one vote per share")
	}
	if sc.LiquidationPreference.LessThan(decimal.Zero) {
		return NewValidationError("liquidation_preference", sc.LiquidationPreference, "liquidation preference cannot be negative")
	}
	if sc.DividendPreference != nil && sc.DividendPreference.LessThan(decimal.Zero) {
		return NewValidationError("dividend_preference", *sc.DividendPreference, "dividend preference cannot be negative")
	}

	switch sc.AntiDilution {
	case "", AntiDilutionNone, AntiDilutionFullRatchet, AntiDilutionWeightedAverage:
	default:
		return NewValidationError("anti_dilution", sc.AntiDilution, "anti-dilution must be NONE, FULL_RATCHET or WEIGHTED_AVERAGE")
	}

	switch sc.Status {
	case ShareClassStatusActive, ShareClassStatusInactive, ShareClassStatusDeleted:
	default:
		return NewValidationError("status", sc.Status, "share class status must be ACTIVE, INACTIVE or DELETED")
	}

	if sc.IsConvertible {
		if sc.ConvertsToClassID != nil && *sc.ConvertsToClassID == sc.ID {
			return NewBusinessRuleError("self_conversion", "a share class cannot convert to itself")
		}
		if sc.ConversionRatio != nil && sc.ConversionRatio.LessThanOrEqual(decimal.Zero) {
			return NewValidationError("conversion_ratio", *sc.ConversionRatio, "conversion ratio must be positive")
		}
	} else if sc.ConvertsToClassID != nil {
		return NewValidationError("converts_to_class_id", *sc.ConvertsToClassID, "non-convertible share class cannot have a conversion target")
	}

	return nil
}
