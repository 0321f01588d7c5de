package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
)

var header = []string{"ID", "User Name", "Email", "Phone", "Operator", "Plan", "Amount", "Status", "Date"}

// DefaultFilename returns transactions_YYYY-MM-DD.csv for the given day
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("transactions_%s.csv", now.Format("2006-01-02"))
}

// WriteTransactions writes txs as CSV with a header row
func WriteTransactions(w io.Writer, txs []client.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, t := range txs {
		name, email := "N/A", "N/A"
		if u := t.User.User; u != nil {
			if u.Name != "" {
				name = u.Name
			}
			if u.Email != "" {
				email = u.Email
			}
		}
		row := []string{
			t.ID,
			name,
			email,
			t.MobileNumber,
			t.Provider,
			t.Plan.Name(),
			strconv.FormatFloat(t.Amount, 'f', -1, 64),
			t.Status,
			t.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
