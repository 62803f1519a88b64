package incentive

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superfest/internal/model"
)

func TestExpandSpreadsEpoch(t *testing.T) {
	rows, err := Expand([]model.Incentive{{
		Date:                 "2024-07-08",
		Chain:                "Optimism",
		Platform:             "Aave",
		Token:                "USDC",
		PoolType:             model.PoolSupply,
		ProtocolSlug:         "aave-v3",
		EpochTokenIncentives: decimal.NewFromInt(700),
	}})
	require.NoError(t, err)
	require.Len(t, rows, 7)

	wantDates := []string{"2024-07-08", "2024-07-09", "2024-07-10", "2024-07-11", "2024-07-12", "2024-07-13", "2024-07-14"}
	for i, row := range rows {
		assert.Equal(t, wantDates[i], row.Date)
		assert.Equal(t, int64(1720396800+i*86400), row.Timestamp)
		assert.True(t, row.IncentivesPerDay.Equal(decimal.NewFromInt(100)), "per day %s", row.IncentivesPerDay)
		assert.True(t, row.EpochTokenIncentives.Equal(decimal.NewFromInt(700)))
	}
}

func TestExpandSortsAcrossEpochs(t *testing.T) {
	rows, err := Expand([]model.Incentive{
		{Date: "2024-07-09", Chain: "Optimism", Platform: "Aave", Token: "WETH", PoolType: model.PoolBorrow, EpochTokenIncentives: decimal.NewFromInt(70)},
		{Date: "2024-07-08", Chain: "Optimism", Platform: "Aave", Token: "USDC", PoolType: model.PoolSupply, EpochTokenIncentives: decimal.NewFromInt(14)},
	})
	require.NoError(t, err)
	require.Len(t, rows, 14)
	assert.Equal(t, "2024-07-08", rows[0].Date)
	assert.Equal(t, "USDC", rows[1].Token)
	assert.Equal(t, "WETH", rows[2].Token)
	assert.Equal(t, "2024-07-15", rows[13].Date)

	assert.Equal(t, []string{
		"2024-07-08", "2024-07-09", "2024-07-10", "2024-07-11",
		"2024-07-12", "2024-07-13", "2024-07-14", "2024-07-15",
	}, Dates(rows))
}

func TestExpandRejectsBadDate(t *testing.T) {
	_, err := Expand([]model.Incentive{{Date: "8 July"}})
	assert.Error(t, err)
}

func TestAttachPrices(t *testing.T) {
	rows, err := Expand([]model.Incentive{{Date: "2024-07-08", Token: "USDC", EpochTokenIncentives: decimal.NewFromInt(700)}})
	require.NoError(t, err)

	prices := []model.PriceRow{
		{Symbol: "OP", Timestamp: 1720483200 + 600, Price: 2},
		{Symbol: "OP", Timestamp: 1720396800 + 3600, Price: 1.5},
	}
	AttachPrices(rows, prices)

	require.Len(t, rows, 7)
	assert.Equal(t, 1.5, rows[0].Price)
	assert.True(t, rows[0].IncentivesPerDayUSD.Equal(decimal.NewFromInt(150)))
	for _, row := range rows[1:] {
		assert.Equal(t, 2.0, row.Price)
		assert.True(t, row.IncentivesPerDayUSD.Equal(decimal.NewFromInt(200)))
	}
}

func TestAttachPricesWithoutPrices(t *testing.T) {
	rows, err := Expand([]model.Incentive{{Date: "2024-07-08", EpochTokenIncentives: decimal.NewFromInt(7)}})
	require.NoError(t, err)
	AttachPrices(rows, nil)
	for _, row := range rows {
		assert.Equal(t, 0.0, row.Price)
		assert.True(t, row.IncentivesPerDayUSD.IsZero())
	}
}
