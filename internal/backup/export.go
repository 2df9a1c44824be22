package backup

import (
	"encoding/json"
	"time"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
)

// Write-side shapes. Each form always emits its collection keys, empty
// or not, so an export of an empty system still decodes cleanly.
type fullExport struct {
	Type       string       `json:"type"`
	ExportedAt string       `json:"exportedAt"`
	Users      []fileUser   `json:"users"`
	Records    []fileRecord `json:"records"`
}

type singleExport struct {
	Type        string       `json:"type"`
	ExportedAt  string       `json:"exportedAt"`
	UserProfile *fileUser    `json:"userProfile"`
	Records     []fileRecord `json:"records"`
}

// ExportFull serializes the whole system: every user (password hashes
// included, so a restore keeps credentials working) and every record.
func ExportFull(users []domain.User, records []domain.TimeRecord) ([]byte, error) {
	out := fullExport{
		Type:       TypeFull,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Users:      make([]fileUser, 0, len(users)),
		Records:    make([]fileRecord, 0, len(records)),
	}
	for _, u := range users {
		out.Users = append(out.Users, toFileUser(u))
	}
	for _, rec := range records {
		out.Records = append(out.Records, toFileRecord(rec))
	}
	return json.MarshalIndent(out, "", "  ")
}

// ExportSingle serializes one user's profile and records.
func ExportSingle(user domain.User, records []domain.TimeRecord) ([]byte, error) {
	profile := toFileUser(user)
	out := singleExport{
		Type:        TypeSingle,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		UserProfile: &profile,
		Records:     make([]fileRecord, 0, len(records)),
	}
	for _, rec := range records {
		out.Records = append(out.Records, toFileRecord(rec))
	}
	return json.MarshalIndent(out, "", "  ")
}

func toFileUser(u domain.User) fileUser {
	fu := fileUser{
		ID:                  u.ID,
		Username:            u.Username,
		Name:                u.Name,
		Role:                string(u.Role),
		Currency:            u.Currency,
		Country:             u.Country,
		Language:            u.Language,
		HourlyRate:          u.HourlyRate,
		NIF:                 u.NIF,
		Email:               u.Email,
		Phone:               u.Phone,
		IsActive:            u.IsActive,
		ProvisionalPassword: u.ProvisionalPassword,
		ProfilePicture:      u.ProfilePicture,
		PasswordHash:        u.PasswordHash,
		CreatedAt:           formatTimestamp(u.CreatedAt),
		UpdatedAt:           formatTimestamp(u.UpdatedAt),
	}
	if u.SocialSecurity != nil {
		fu.SocialSecurity = &fileRule{Type: string(u.SocialSecurity.Type), Value: u.SocialSecurity.Value}
	}
	if u.IncomeTax != nil {
		fu.IRS = &fileRule{Type: string(u.IncomeTax.Type), Value: u.IncomeTax.Value}
	}
	if u.SubscriptionDate != nil {
		d := u.SubscriptionDate.Format("2006-01-02")
		fu.SubscriptionDate = &d
	}
	if u.AvatarConfig != nil {
		fu.AvatarConfig = &fileAvatar{
			SkinTone:   u.AvatarConfig.SkinTone,
			Profession: u.AvatarConfig.Profession,
			HairColor:  u.AvatarConfig.HairColor,
			Accessory:  u.AvatarConfig.Accessory,
			Mouth:      u.AvatarConfig.Mouth,
			Gender:     u.AvatarConfig.Gender,
		}
	}
	return fu
}

func toFileRecord(rec domain.TimeRecord) fileRecord {
	return fileRecord{
		ID:                   rec.ID,
		OwnerID:              rec.OwnerID,
		Date:                 rec.Date,
		StartTime:            rec.StartTime,
		EndTime:              rec.EndTime,
		LunchDuration:        rec.LunchDuration,
		IsAbsent:             rec.IsAbsent,
		Notes:                rec.Notes,
		WorkSite:             rec.WorkSite,
		Advance:              rec.Advance,
		ManualSocialSecurity: rec.ManualSocialSecurity,
		CreatedAt:            formatTimestamp(rec.CreatedAt),
		UpdatedAt:            formatTimestamp(rec.UpdatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
