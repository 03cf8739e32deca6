// ledger-verify walks the company ledger per mode and recomputes every
// running balance from the appended deltas. Any row whose stored balance
// disagrees with the recomputed chain is printed; a non-zero exit means at
// least one mismatch was found.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/ledger-verify
package main

import (
	"flag"
	"fmt"
	"os"

	"bitbucket.org/baburtravels/agency_backend/config"
	"bitbucket.org/baburtravels/agency_backend/models"
	"bitbucket.org/baburtravels/agency_backend/utils"
	"github.com/shopspring/decimal"
)

func main() {
	modeFlag := flag.String("mode", "", "Verify a single mode (cash|online); default verifies both")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	modes := []models.PaymentMode{models.PaymentModeCash, models.PaymentModeOnline}
	if *modeFlag != "" {
		mode := models.PaymentMode(*modeFlag)
		if !mode.CompanyMode() {
			fmt.Fprintf(os.Stderr, "invalid mode %q\n", *modeFlag)
			os.Exit(1)
		}
		modes = []models.PaymentMode{mode}
	}

	mismatches := 0
	for _, mode := range modes {
		var entries []models.CompanyAccountBalance
		if err := db.Where("mode = ?", mode).Order("id ASC").Find(&entries).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to load ledger for mode %s: %v\n", mode, err)
			os.Exit(1)
		}

		running := decimal.Zero
		for _, entry := range entries {
			running = utils.RoundMoney(running.Add(entry.CreditedAmount))
			if !entry.Balance.Equal(running) {
				mismatches++
				fmt.Printf("MISMATCH mode=%s id=%d ref_no=%s stored=%s recomputed=%s\n",
					mode, entry.ID, entry.RefNo, entry.Balance.StringFixed(2), running.StringFixed(2))
				// Resynchronize on the stored value so one bad row does not
				// cascade into reports for every row after it.
				running = entry.Balance
			}
		}
		fmt.Printf("mode=%s entries=%d balance=%s mismatches=%d\n", mode, len(entries), running.StringFixed(2), mismatches)
	}

	if mismatches > 0 {
		os.Exit(2)
	}
}
