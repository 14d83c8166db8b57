package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"contract-risk-lab/internal/domain"
)

// RenderCounterpartiesCSV renders the ranked senders and receivers of an
// interaction analysis, one row per counterparty. Values are in wei.
func RenderCounterpartiesCSV(a *domain.InteractionAnalysis) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"direction", "rank", "address", "label", "is_known", "transaction_count", "total_value_wei", "tx_types"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	write := func(direction string, list []domain.Counterparty) error {
		for i, c := range list {
			value := "0"
			if c.TotalValue != nil {
				value = c.TotalValue.String()
			}
			kinds := make([]string, len(c.TxTypes))
			for j, k := range c.TxTypes {
				kinds[j] = string(k)
			}
			row := []string{
				direction,
				strconv.Itoa(i + 1),
				c.Address,
				c.Label,
				strconv.FormatBool(c.IsKnown),
				strconv.Itoa(c.TransactionCount),
				value,
				strings.Join(kinds, ";"),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write("in", a.TopSenders); err != nil {
		return "", err
	}
	if err := write("out", a.TopReceivers); err != nil {
		return "", err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
