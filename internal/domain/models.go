package domain

import "time"

// Enumerations
const (
	RoleMaster   UserRole = "master"
	RoleEmployee UserRole = "employee"

	DeductionPercentage DeductionType = "percentage"
	DeductionFixed      DeductionType = "fixed"
)

type UserRole string
type DeductionType string

// Valid reports whether the role is one of the two known values.
func (r UserRole) Valid() bool {
	return r == RoleMaster || r == RoleEmployee
}

// DeductionRule describes a social-security or income-tax rule.
// Value is a percentage (0-100) when Type is percentage, otherwise a flat
// amount in minor currency units.
type DeductionRule struct {
	Type  DeductionType
	Value float64
}

func (d DeductionRule) Valid() bool {
	if d.Value < 0 {
		return false
	}
	switch d.Type {
	case DeductionPercentage:
		return d.Value <= 100
	case DeductionFixed:
		return true
	}
	return false
}

type AvatarConfig struct {
	SkinTone   string
	Profession string
	HairColor  string
	Accessory  string
	Mouth      string
	Gender     string
}

// User is one account: identity plus payroll configuration.
// All money fields are minor currency units (cents) of Currency.
type User struct {
	ID                  string
	Username            string
	Name                string
	Role                UserRole
	Currency            string
	Country             string
	Language            string
	HourlyRate          int64 // minor units per hour; meaningful for employees only
	NIF                 string
	Email               string
	Phone               string
	IsActive            bool
	SubscriptionDate    *time.Time
	ProvisionalPassword bool
	SocialSecurity      *DeductionRule
	IncomeTax           *DeductionRule
	ProfilePicture      string
	AvatarConfig        *AvatarConfig
	PasswordHash        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TimeRecord is one calendar day's work entry. At most one record exists
// per (OwnerID, Date) pair; upserts replace the whole record.
type TimeRecord struct {
	ID                   string
	OwnerID              string
	Date                 string // YYYY-MM-DD
	StartTime            string // HH:mm
	EndTime              string // HH:mm
	LunchDuration        int    // minutes
	IsAbsent             bool
	Notes                string
	WorkSite             string
	Advance              int64  // minor units
	ManualSocialSecurity *int64 // minor units; overrides the profile rule for this day
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ChatMessage is append-only. OriginalLanguage captures the sender's
// language at send time so readers can tell source from display language.
type ChatMessage struct {
	ID               string
	UserID           string
	Text             string
	Timestamp        time.Time
	OriginalLanguage string
}
