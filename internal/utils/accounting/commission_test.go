package accounting

import (
	"strconv"
	"testing"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRatios() CommissionRatios {
	return CommissionRatios{
		domain.RoleSegnalatori:              decimal.RequireFromString("0.10"),
		domain.RoleSportelloLavoro:          decimal.RequireFromString("0.15"),
		domain.RoleResponsabileTerritoriale: decimal.RequireFromString("0.05"),
	}
}

func TestSplitCommission_SumsExactly(t *testing.T) {
	chain := []ChainMember{
		{UserID: "seg", Role: domain.RoleSegnalatori},
		{UserID: "sl", Role: domain.RoleSportelloLavoro},
		{UserID: "rt", Role: domain.RoleResponsabileTerritoriale},
	}
	for _, raw := range []string{"0.01", "0.07", "1", "99.99", "1000.33", "123456.78"} {
		gross := decimal.RequireFromString(raw)
		shares, err := SplitCommission(gross, chain, testRatios())
		require.NoError(t, err, raw)
		assert.True(t, SumShares(shares).Equal(gross), "shares of %s sum to %s", raw, SumShares(shares))
		platform := shares[len(shares)-1]
		assert.Nil(t, platform.UserID)
		assert.False(t, platform.Amount.IsNegative())
		for _, s := range shares {
			assert.True(t, s.Amount.Equal(s.Amount.Round(CentPlaces)))
		}
	}
}

func TestSplitCommission_Amounts(t *testing.T) {
	chain := []ChainMember{
		{UserID: "sl", Role: domain.RoleSportelloLavoro},
		{UserID: "rt", Role: domain.RoleResponsabileTerritoriale},
		{UserID: "adm", Role: domain.RoleAdmin},
	}
	shares, err := SplitCommission(decimal.RequireFromString("333.33"), chain, testRatios())
	require.NoError(t, err)
	require.Len(t, shares, 3)
	assert.Equal(t, "sl", *shares[0].UserID)
	assert.Equal(t, "49.99", shares[0].Amount.StringFixed(2))
	assert.Equal(t, "rt", *shares[1].UserID)
	assert.Equal(t, "16.66", shares[1].Amount.StringFixed(2))
	assert.Equal(t, "266.68", shares[2].Amount.StringFixed(2))
}

func TestSplitCommission_Rejects(t *testing.T) {
	_, err := SplitCommission(decimal.Zero, nil, testRatios())
	assert.Error(t, err)

	_, err = SplitCommission(decimal.RequireFromString("10.001"), nil, testRatios())
	assert.Error(t, err)

	greedy := CommissionRatios{
		domain.RoleSegnalatori:     decimal.RequireFromString("0.6"),
		domain.RoleSportelloLavoro: decimal.RequireFromString("0.6"),
	}
	_, err = SplitCommission(decimal.NewFromInt(10), nil, greedy)
	assert.Error(t, err)
}

func TestCommissionEntries_DropsZeroShares(t *testing.T) {
	shares, err := SplitCommission(decimal.RequireFromString("0.05"), []ChainMember{{UserID: "seg", Role: domain.RoleSegnalatori}}, testRatios())
	require.NoError(t, err)

	n := 0
	entries := CommissionEntries(shares, EntryMeta{
		CompanyID:   "c1",
		ReferenceID: "ref-1",
		EntryDate:   time.Now(),
		Source:      domain.SourceCommission,
		CreatedBy:   "admin",
		Now:         time.Now(),
		NewID:       func() string { n++; return "e" + strconv.Itoa(n) },
	})
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserID)
	assert.Equal(t, "platform", entries[0].Category)
	assert.Equal(t, "0.05", entries[0].Amount.StringFixed(2))
}
