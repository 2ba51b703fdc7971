package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceDeposit(t *testing.T) {
	in := DepositInput{
		AdminID:    "admin-1",
		CustomerID: "cust-1",
		TransactionDetails: []DepositDetail{
			{StuffID: "paper", Weight: 2.5},
			{StuffID: "iron", Weight: 1},
		},
	}
	prices := map[string]int64{"paper": 2000, "iron": 4500}

	require.NoError(t, PriceDeposit(&in, prices))
	assert.Equal(t, int64(5000), in.TransactionDetails[0].Amount)
	assert.Equal(t, int64(4500), in.TransactionDetails[1].Amount)
	assert.Equal(t, int64(9500), in.Amount)
}

func TestPriceDeposit_UnknownStuff(t *testing.T) {
	in := DepositInput{TransactionDetails: []DepositDetail{{StuffID: "glass", Weight: 1}}}

	err := PriceDeposit(&in, map[string]int64{})
	fields := FieldErrors(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "transactionDetails[0].stuffId")
}

func TestTotalPagesFor(t *testing.T) {
	assert.Equal(t, 0, TotalPagesFor(0, 5))
	assert.Equal(t, 1, TotalPagesFor(5, 5))
	assert.Equal(t, 3, TotalPagesFor(12, 5))
	assert.Equal(t, 0, TotalPagesFor(12, 0))
}

func TestIdentityRoles(t *testing.T) {
	var nilIdentity *Identity
	assert.False(t, nilIdentity.IsSuperAdmin())

	admin := &Identity{Roles: []string{RoleAdmin}, Email: "a@rongsox.id"}
	assert.False(t, admin.IsSuperAdmin())
	assert.Equal(t, "a@rongsox.id", admin.DisplayName())

	super := &Identity{Roles: []string{RoleSuperAdmin}, Name: "Root"}
	assert.True(t, super.IsSuperAdmin())
	assert.Equal(t, "Root", super.DisplayName())
}

func TestTransactionStatusLabel(t *testing.T) {
	assert.Equal(t, "On Process", StatusOnProcess.Label())
	assert.Equal(t, "Pending", StatusPending.Label())
	assert.True(t, StatusSuccess.Valid())
	assert.False(t, TransactionStatus("On").Valid())
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-03-05T10:20:30Z"`, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{`"2024-03-05T10:20:30"`, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{`"2024-03-05T10:20:30.123"`, time.Date(2024, 3, 5, 10, 20, 30, 123000000, time.UTC)},
		{`"2024-03-05"`, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{`1709634030000`, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{`null`, time.Time{}},
	}
	for _, tt := range tests {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(tt.in), &ts), tt.in)
		assert.True(t, tt.want.Equal(ts.Time), "%s: got %v", tt.in, ts.Time)
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"05/03/2024"`), &ts))
}
