package models

import "time"

// User — риелтор, владелец соглашений.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash []byte `gorm:"not null" json:"-"`

	FirstName     string `gorm:"size:255;not null" json:"first_name"`
	LastName      string `gorm:"size:255;not null" json:"last_name"`
	Phone         string `gorm:"size:64" json:"phone"`
	CompanyName   string `gorm:"size:255" json:"company_name"`
	LicenseNumber string `gorm:"size:64" json:"license_number"`
	State         string `gorm:"size:64" json:"state"`
}

// RealtorProfile — публичная визитка риелтора для клиентской страницы.
type RealtorProfile struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	State   string `json:"state"`
}

func (u *User) Profile() RealtorProfile {
	return RealtorProfile{
		Name:    u.FirstName + " " + u.LastName,
		Company: u.CompanyName,
		State:   u.State,
	}
}
