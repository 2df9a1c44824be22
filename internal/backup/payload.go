// Package backup reads and writes Digital Nexus backup files and merges
// them into the live stores. A restore is all-or-nothing: the payload is
// fully decoded and validated before any store is touched.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
)

// Backup file discriminants. Existing export files depend on these
// exact strings; never change them.
const (
	TypeFull   = "digital-nexus-backup-full"
	TypeSingle = "digital-nexus-backup-single"
)

var (
	// ErrInvalidFormat covers unknown discriminants and malformed shapes.
	ErrInvalidFormat = errors.New("invalid backup file")
	// ErrAuthorizationDenied is returned when the acting user may not
	// apply the payload (full restores are master-only).
	ErrAuthorizationDenied = errors.New("authorization denied")
)

// Payload is a decoded, validated backup file.
type Payload struct {
	Type        string
	Users       []domain.User
	Records     []domain.TimeRecord
	UserProfile *domain.User
}

type envelope struct {
	Type string `json:"type"`
}

// filePayload is the read side: one shape covering both forms so a file
// can be decoded before its type decides which fields matter.
type filePayload struct {
	Type        string       `json:"type"`
	Users       []fileUser   `json:"users"`
	Records     []fileRecord `json:"records"`
	UserProfile *fileUser    `json:"userProfile"`
}

type fileRule struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type fileAvatar struct {
	SkinTone   string `json:"skinTone"`
	Profession string `json:"profession"`
	HairColor  string `json:"hairColor"`
	Accessory  string `json:"accessory"`
	Mouth      string `json:"mouth"`
	Gender     string `json:"gender"`
}

type fileUser struct {
	ID                  string      `json:"id"`
	Username            string      `json:"username"`
	Name                string      `json:"name"`
	Role                string      `json:"role"`
	Currency            string      `json:"currency"`
	Country             string      `json:"country"`
	Language            string      `json:"language"`
	HourlyRate          int64       `json:"hourlyRate"`
	NIF                 string      `json:"nif,omitempty"`
	Email               string      `json:"email,omitempty"`
	Phone               string      `json:"phone,omitempty"`
	IsActive            bool        `json:"isActive"`
	SubscriptionDate    *string     `json:"subscriptionDate,omitempty"`
	ProvisionalPassword bool        `json:"isProvisionalPassword,omitempty"`
	SocialSecurity      *fileRule   `json:"socialSecurity,omitempty"`
	IRS                 *fileRule   `json:"irs,omitempty"`
	ProfilePicture      string      `json:"profilePicture,omitempty"`
	AvatarConfig        *fileAvatar `json:"avatarConfig,omitempty"`
	PasswordHash        *string     `json:"passwordHash,omitempty"`
	CreatedAt           string      `json:"createdAt,omitempty"`
	UpdatedAt           string      `json:"updatedAt,omitempty"`
}

type fileRecord struct {
	ID                   string `json:"id"`
	OwnerID              string `json:"ownerId,omitempty"`
	Date                 string `json:"date"`
	StartTime            string `json:"startTime"`
	EndTime              string `json:"endTime"`
	LunchDuration        int    `json:"lunchDuration"`
	IsAbsent             bool   `json:"isAbsent"`
	Notes                string `json:"notes,omitempty"`
	WorkSite             string `json:"workSite,omitempty"`
	Advance              int64  `json:"advance,omitempty"`
	ManualSocialSecurity *int64 `json:"manualSocialSecurity,omitempty"`
	CreatedAt            string `json:"createdAt,omitempty"`
	UpdatedAt            string `json:"updatedAt,omitempty"`
}

// Decode parses and validates a backup file. Extra unknown fields are
// ignored; a missing or unknown discriminant, or a structurally broken
// users/records list, fails with ErrInvalidFormat.
func Decode(data []byte) (*Payload, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if env.Type != TypeFull && env.Type != TypeSingle {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidFormat, env.Type)
	}

	var fp filePayload
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	p := Payload{Type: env.Type}
	switch env.Type {
	case TypeFull:
		if fp.Users == nil || fp.Records == nil {
			return nil, fmt.Errorf("%w: full backup requires users and records", ErrInvalidFormat)
		}
		for _, fu := range fp.Users {
			u, err := fu.toDomain()
			if err != nil {
				return nil, err
			}
			p.Users = append(p.Users, *u)
		}
		for _, fr := range fp.Records {
			rec, err := fr.toDomain()
			if err != nil {
				return nil, err
			}
			if rec.OwnerID == "" {
				return nil, fmt.Errorf("%w: record %s has no owner", ErrInvalidFormat, rec.Date)
			}
			p.Records = append(p.Records, *rec)
		}
	case TypeSingle:
		if fp.UserProfile == nil {
			return nil, fmt.Errorf("%w: single backup requires userProfile", ErrInvalidFormat)
		}
		u, err := fp.UserProfile.toDomain()
		if err != nil {
			return nil, err
		}
		p.UserProfile = u
		for _, fr := range fp.Records {
			rec, err := fr.toDomain()
			if err != nil {
				return nil, err
			}
			// Single-user files from older exports carry no owner id.
			rec.OwnerID = u.ID
			p.Records = append(p.Records, *rec)
		}
	}
	return &p, nil
}

func (fu fileUser) toDomain() (*domain.User, error) {
	if fu.ID == "" || fu.Username == "" {
		return nil, fmt.Errorf("%w: user entry missing id or username", ErrInvalidFormat)
	}
	role := domain.UserRole(fu.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: user %s has role %q", ErrInvalidFormat, fu.ID, fu.Role)
	}
	u := domain.User{
		ID:                  fu.ID,
		Username:            fu.Username,
		Name:                fu.Name,
		Role:                role,
		Currency:            fu.Currency,
		Country:             fu.Country,
		Language:            fu.Language,
		HourlyRate:          fu.HourlyRate,
		NIF:                 fu.NIF,
		Email:               fu.Email,
		Phone:               fu.Phone,
		IsActive:            fu.IsActive,
		ProvisionalPassword: fu.ProvisionalPassword,
		ProfilePicture:      fu.ProfilePicture,
		PasswordHash:        fu.PasswordHash,
		CreatedAt:           parseTimestamp(fu.CreatedAt),
		UpdatedAt:           parseTimestamp(fu.UpdatedAt),
	}
	var err error
	if u.SocialSecurity, err = fu.SocialSecurity.toDomain(fu.ID); err != nil {
		return nil, err
	}
	if u.IncomeTax, err = fu.IRS.toDomain(fu.ID); err != nil {
		return nil, err
	}
	if fu.SubscriptionDate != nil {
		d, err := time.Parse("2006-01-02", *fu.SubscriptionDate)
		if err != nil {
			return nil, fmt.Errorf("%w: user %s subscription date: %v", ErrInvalidFormat, fu.ID, err)
		}
		u.SubscriptionDate = &d
	}
	if fu.AvatarConfig != nil {
		u.AvatarConfig = &domain.AvatarConfig{
			SkinTone:   fu.AvatarConfig.SkinTone,
			Profession: fu.AvatarConfig.Profession,
			HairColor:  fu.AvatarConfig.HairColor,
			Accessory:  fu.AvatarConfig.Accessory,
			Mouth:      fu.AvatarConfig.Mouth,
			Gender:     fu.AvatarConfig.Gender,
		}
	}
	return &u, nil
}

func (fr *fileRule) toDomain(userID string) (*domain.DeductionRule, error) {
	if fr == nil {
		return nil, nil
	}
	rule := domain.DeductionRule{Type: domain.DeductionType(fr.Type), Value: fr.Value}
	if !rule.Valid() {
		return nil, fmt.Errorf("%w: user %s has a malformed deduction rule", ErrInvalidFormat, userID)
	}
	return &rule, nil
}

func (fr fileRecord) toDomain() (*domain.TimeRecord, error) {
	if _, err := time.Parse("2006-01-02", fr.Date); err != nil {
		return nil, fmt.Errorf("%w: record date %q", ErrInvalidFormat, fr.Date)
	}
	return &domain.TimeRecord{
		ID:                   fr.ID,
		OwnerID:              fr.OwnerID,
		Date:                 fr.Date,
		StartTime:            fr.StartTime,
		EndTime:              fr.EndTime,
		LunchDuration:        fr.LunchDuration,
		IsAbsent:             fr.IsAbsent,
		Notes:                fr.Notes,
		WorkSite:             fr.WorkSite,
		Advance:              fr.Advance,
		ManualSocialSecurity: fr.ManualSocialSecurity,
		CreatedAt:            parseTimestamp(fr.CreatedAt),
		UpdatedAt:            parseTimestamp(fr.UpdatedAt),
	}, nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
