package domain

import "math/big"

// FormatUnits renders a raw integer amount scaled down by decimals with a
// fixed number of fraction digits. Nil renders as zero.
func FormatUnits(v *big.Int, decimals, digits int) string {
	if v == nil {
		v = new(big.Int)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f := new(big.Float).SetPrec(256).SetInt(v)
	f.Quo(f, new(big.Float).SetPrec(256).SetInt(scale))
	return f.Text('f', digits)
}
