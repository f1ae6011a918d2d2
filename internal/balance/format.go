package balance

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

func init() {
	if money.GetCurrency(string(models.CurrencyBTC)) == nil {
		money.AddCurrency(string(models.CurrencyBTC), "₿", "$1", ".", ",", 8)
	}
}

// Format renders an amount for display in the ledger currency, e.g. "$1,500.00".
func Format(amount decimal.Decimal, currency models.Currency) string {
	code := string(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.String() + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}
