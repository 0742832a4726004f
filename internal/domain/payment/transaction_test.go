package payment

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	tx, err := NewTransaction("t-1", Transaction{
		OrderID:              "o-1",
		GatewayTransactionID: "pay_1",
		Gateway:              GatewayRazorpay,
		Amount:               decimal.NewFromInt(100),
		Currency:             "inr",
		RawResponse:          json.RawMessage(`{"ok":true}`),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, tx.Status)
	assert.Equal(t, "INR", tx.Currency)
}

func TestNewTransaction_Rejects(t *testing.T) {
	base := Transaction{
		OrderID:              "o-1",
		GatewayTransactionID: "pay_1",
		Gateway:              GatewayRazorpay,
		Amount:               decimal.NewFromInt(1),
		Currency:             "INR",
	}

	noGateway := base
	noGateway.GatewayTransactionID = ""
	_, err := NewTransaction("t", noGateway)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	badRaw := base
	badRaw.RawResponse = json.RawMessage(`{nope`)
	_, err = NewTransaction("t", badRaw)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	badStatus := base
	badStatus.Status = "refunded"
	_, err = NewTransaction("t", badStatus)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStatus(t *testing.T) {
	tx := &Transaction{Status: StatusPending}
	require.NoError(t, tx.SetStatus(StatusFailed))
	assert.Equal(t, StatusFailed, tx.Status)
	assert.ErrorIs(t, tx.SetStatus("x"), ErrInvalidStatus)
}
