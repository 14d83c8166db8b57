package postgres

import "math/big"

// numericText renders a big integer for a NUMERIC column.
func numericText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
