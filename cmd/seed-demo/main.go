// seed-demo loads a small demo dataset: a few customers, agents and
// partners with wallet balances and credit lines, plus the supporting
// particulars, locations and type tables.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"fmt"
	"os"

	"bitbucket.org/baburtravels/agency_backend/config"
	"bitbucket.org/baburtravels/agency_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := models.Migrate(db); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		customers := []models.Customer{
			{Name: "Demo Customer A", WalletBalance: decimal.NewFromInt(1000), CreditLimit: decimal.NewFromInt(500)},
			{Name: "Demo Customer B", WalletBalance: decimal.NewFromInt(250), CreditLimit: decimal.NewFromInt(100)},
		}
		for i := range customers {
			if err := upsertByName(tx, &customers[i]); err != nil {
				return err
			}
		}

		agents := []models.Agent{
			{Name: "Demo Agent A", WalletBalance: decimal.NewFromInt(2000), CreditLimit: decimal.NewFromInt(1000), CreditBalance: decimal.NewFromInt(1000)},
			{Name: "Demo Agent B", WalletBalance: decimal.NewFromInt(500), CreditLimit: decimal.NewFromInt(300), CreditBalance: decimal.NewFromInt(300)},
		}
		for i := range agents {
			if err := upsertByName(tx, &agents[i]); err != nil {
				return err
			}
		}

		partner := models.Partner{Name: "Demo Partner", WalletBalance: decimal.NewFromInt(750)}
		if err := upsertByName(tx, &partner); err != nil {
			return err
		}

		for _, name := range []string{"Airfare", "Visa Fee", "Hotel", "Transport"} {
			if err := upsertByName(tx, &models.Particular{Name: name}); err != nil {
				return err
			}
		}
		for _, name := range []string{"Dubai", "Istanbul", "London"} {
			if err := upsertByName(tx, &models.TravelLocation{Name: name}); err != nil {
				return err
			}
		}
		for _, name := range []string{"One Way", "Return"} {
			if err := upsertByName(tx, &models.TicketType{Name: name}); err != nil {
				return err
			}
		}
		for _, name := range []string{"Tourist", "Work", "Transit"} {
			if err := upsertByName(tx, &models.VisaType{Name: name}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Demo data seeded")
}

func upsertByName(tx *gorm.DB, record interface{}) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(record).Error
}
