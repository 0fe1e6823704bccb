package report

import (
	"errors"
	"math"
)

var (
	// ErrAvgRateRequired: hay ingresos en USD pero no se indicó la tasa promedio USD→DOP.
	ErrAvgRateRequired = errors.New("se requiere la tasa promedio")
	// ErrFeePercentInvalid: porcentaje de comisión negativo o no finito.
	ErrFeePercentInvalid = errors.New("porcentaje de comisión inválido")
	// ErrTotalsInvalid: algún total es negativo o no finito.
	ErrTotalsInvalid = errors.New("totales inválidos")
)

// CalcInput: totales crudos del período más los parámetros del administrador.
// Los totales ya vienen agregados por moneda y método desde los pagos.
type CalcInput struct {
	USDTotal     float64
	DOPTotal     float64
	DOPCashTotal float64  // parte de DOPTotal cobrada en efectivo
	AvgRate      *float64 // tasa promedio USD→DOP (obligatoria si USDTotal > 0)
	FeePercent   float64
}

type CalcResult struct {
	FeeBaseDOP        float64
	FeeDOP            float64
	FeeDeductedDOP    float64 // nunca mayor que el efectivo cobrado en DOP
	OwnersLeftoverDOP float64
}

// Calculate aplica la comisión de gerencia sobre la base en DOP.
//
//	fee_base_dop     = usd_total * avg_rate + dop_total
//	fee_dop          = fee_base_dop * fee_percent / 100
//	fee_deducted_dop = min(fee_dop, dop_cash_total)
//	leftover         = dop_cash_total - fee_deducted_dop
//
// La comisión solo se descuenta del efectivo realmente cobrado en DOP;
// si la comisión calculada supera ese efectivo, el resto queda pendiente
// y al propietario no se le entrega nada ese mes.
func Calculate(in CalcInput) (CalcResult, error) {
	if !isFiniteNonNegative(in.USDTotal) || !isFiniteNonNegative(in.DOPTotal) || !isFiniteNonNegative(in.DOPCashTotal) {
		return CalcResult{}, ErrTotalsInvalid
	}
	if math.IsNaN(in.FeePercent) || math.IsInf(in.FeePercent, 0) || in.FeePercent < 0 {
		return CalcResult{}, ErrFeePercentInvalid
	}

	usdTerm := 0.0
	if in.USDTotal > 0 {
		if in.AvgRate == nil || math.IsNaN(*in.AvgRate) || math.IsInf(*in.AvgRate, 0) || *in.AvgRate <= 0 {
			return CalcResult{}, ErrAvgRateRequired
		}
		usdTerm = in.USDTotal * *in.AvgRate
	}

	res := CalcResult{}
	res.FeeBaseDOP = usdTerm + in.DOPTotal
	res.FeeDOP = res.FeeBaseDOP * in.FeePercent / 100
	res.FeeDeductedDOP = math.Min(res.FeeDOP, in.DOPCashTotal)
	res.OwnersLeftoverDOP = math.Max(0, in.DOPCashTotal-res.FeeDeductedDOP)

	return res, nil
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
