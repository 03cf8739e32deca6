package models

import "time"

// Reference entities attached to bookings. They carry no settlement logic;
// the engine only ever reads their ids.

type Particular struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:40;uniqueIndex;not null" json:"name" binding:"required"`
	Active    *bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type TravelLocation struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required"`
	Active    *bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Passenger struct {
	ID             int        `gorm:"primary_key" json:"id"`
	Name           string     `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required"`
	Contact        string     `gorm:"size:40" json:"contact"`
	PassportNumber string     `gorm:"size:40;uniqueIndex" json:"passport_number"`
	Salutation     string     `gorm:"size:10" json:"salutation"`
	Address        string     `gorm:"size:200" json:"address"`
	Nationality    string     `gorm:"size:50" json:"nationality"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	PassportIssue  *time.Time `json:"passport_issue_date"`
	PassportExpiry *time.Time `json:"passport_expiry"`
	Active         *bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type TicketType struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required"`
	Active    *bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type VisaType struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required"`
	Active    *bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
