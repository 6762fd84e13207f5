package dispatch

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/cajabot/cajabot/internal/database/repository"
)

// movementsCSV renders movements as CSV with a header row. Amounts are cents.
func movementsCSV(movements []repository.Movement) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "account_id", "type", "amount_cents", "concept", "created_at"})
	for _, m := range movements {
		_ = w.Write([]string{
			m.ID,
			m.AccountID,
			m.Type,
			strconv.FormatInt(m.Amount, 10),
			m.Concept,
			m.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	return b.String()
}
