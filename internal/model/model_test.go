package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionType(t *testing.T) {
	assert.True(t, TxIn.Valid())
	assert.True(t, TxOut.Valid())
	assert.False(t, TransactionType("ADJUST").Valid())

	assert.Equal(t, 5, TxIn.Delta(5))
	assert.Equal(t, -5, TxOut.Delta(5))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10000", "10000.00"},
		{"0", "0.00"},
		{"19.995", "20.00"},
		{"19.994", "19.99"},
		{"0.125", "0.13"},
		{"1.1", "1.10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestTotalValues(t *testing.T) {
	p := Product{UnitPrice: decimal.RequireFromString("0.10"), StockQuantity: 3}
	assert.Equal(t, "0.30", FormatMoney(p.TotalValue()))

	tx := Transaction{UnitPrice: decimal.RequireFromString("1000.00"), Quantity: 10}
	assert.Equal(t, "10000.00", FormatMoney(tx.TotalValue()))
}

func TestUserPrivileges(t *testing.T) {
	u := User{Role: RoleViewer}
	assert.Contains(t, u.Privileges(), PrivReportView)
	assert.NotContains(t, u.Privileges(), PrivTransactionCreate)

	assert.NoError(t, u.SetPassword("secret"))
	assert.True(t, u.CheckPassword("secret"))
	assert.False(t, u.CheckPassword("wrong"))
}
