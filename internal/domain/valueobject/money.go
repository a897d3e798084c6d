package valueobject

import (
	"fmt"
	"math"

	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

const DefaultCurrency = "USD"

// Money хранит сумму в основных единицах валюты.
type Money struct {
	Amount   float64
	Currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Cents возвращает сумму в минимальных единицах для платёжного шлюза.
func (m Money) Cents() int64 {
	return int64(math.Round(m.Amount * 100))
}

func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.Amount)
}
