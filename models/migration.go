package models

import "gorm.io/gorm"

// Migrate runs AutoMigrate for every persisted model, in dependency order.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Particular{},
		&TravelLocation{},
		&Passenger{},
		&TicketType{},
		&VisaType{},
		&Customer{},
		&Agent{},
		&Partner{},
		&Booking{},
		&Transaction{},
		&CompanyAccountBalance{},
		&Invoice{},
	)
}
