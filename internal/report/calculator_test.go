package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratePtr(v float64) *float64 { return &v }

func TestCalculateFeeCappedByCash(t *testing.T) {
	// USD 1000 a tasa 58 + DOP 5000 = base 63000; 5% = 3150,
	// pero solo hay 3000 en efectivo DOP: se descuenta 3000 y no sobra nada.
	res, err := Calculate(CalcInput{
		USDTotal:     1000,
		DOPTotal:     5000,
		DOPCashTotal: 3000,
		AvgRate:      ratePtr(58),
		FeePercent:   5,
	})
	require.NoError(t, err)

	assert.InDelta(t, 63000, res.FeeBaseDOP, 0.001)
	assert.InDelta(t, 3150, res.FeeDOP, 0.001)
	assert.InDelta(t, 3000, res.FeeDeductedDOP, 0.001)
	assert.InDelta(t, 0, res.OwnersLeftoverDOP, 0.001)
}

func TestCalculateWithoutUSDNoRateNeeded(t *testing.T) {
	res, err := Calculate(CalcInput{
		USDTotal:     0,
		DOPTotal:     2000,
		DOPCashTotal: 2000,
		AvgRate:      nil,
		FeePercent:   10,
	})
	require.NoError(t, err)

	assert.InDelta(t, 2000, res.FeeBaseDOP, 0.001)
	assert.InDelta(t, 200, res.FeeDOP, 0.001)
	assert.InDelta(t, 200, res.FeeDeductedDOP, 0.001)
	assert.InDelta(t, 1800, res.OwnersLeftoverDOP, 0.001)
}

func TestCalculateUSDWithoutRateRejected(t *testing.T) {
	_, err := Calculate(CalcInput{
		USDTotal:   500,
		DOPTotal:   0,
		AvgRate:    nil,
		FeePercent: 5,
	})
	require.ErrorIs(t, err, ErrAvgRateRequired)

	// Tasa cero o negativa cuenta como ausente
	_, err = Calculate(CalcInput{USDTotal: 500, AvgRate: ratePtr(0), FeePercent: 5})
	require.ErrorIs(t, err, ErrAvgRateRequired)

	_, err = Calculate(CalcInput{USDTotal: 500, AvgRate: ratePtr(-3), FeePercent: 5})
	require.ErrorIs(t, err, ErrAvgRateRequired)
}

func TestCalculateInvalidFeePercent(t *testing.T) {
	_, err := Calculate(CalcInput{DOPTotal: 100, DOPCashTotal: 100, FeePercent: -1})
	require.ErrorIs(t, err, ErrFeePercentInvalid)
}

func TestCalculateNegativeTotalsRejected(t *testing.T) {
	_, err := Calculate(CalcInput{DOPTotal: -5, FeePercent: 5})
	require.ErrorIs(t, err, ErrTotalsInvalid)
}

// Propiedad del dominio: lo descontado jamás supera el efectivo cobrado
// y lo que queda para el propietario nunca es negativo.
func TestCalculateDeductionNeverExceedsCash(t *testing.T) {
	cases := []CalcInput{
		{USDTotal: 100, DOPTotal: 0, DOPCashTotal: 0, AvgRate: ratePtr(60), FeePercent: 100},
		{USDTotal: 0, DOPTotal: 50000, DOPCashTotal: 100, FeePercent: 50},
		{USDTotal: 2500, DOPTotal: 80000, DOPCashTotal: 80000, AvgRate: ratePtr(58.5), FeePercent: 0},
		{USDTotal: 1, DOPTotal: 1, DOPCashTotal: 1, AvgRate: ratePtr(0.01), FeePercent: 99.9},
	}

	for _, in := range cases {
		res, err := Calculate(in)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.FeeDeductedDOP, in.DOPCashTotal)
		assert.GreaterOrEqual(t, res.FeeDeductedDOP, 0.0)
		assert.InDelta(t, in.DOPCashTotal-res.FeeDeductedDOP, res.OwnersLeftoverDOP, 0.0001)
		assert.GreaterOrEqual(t, res.OwnersLeftoverDOP, 0.0)
	}
}
