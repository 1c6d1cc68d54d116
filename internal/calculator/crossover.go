package calculator

import "GoldSentinel/internal/model"

const (
	crossShortWindow = 5
	crossLongWindow  = 20
)

// DetectCrossover reports whether MA5 has just crossed MA20. A golden cross needs
// MA5 to move from at-or-below MA20 to above it with the close also above MA20;
// a death cross is the mirror image. With fewer than 20 usable closes the signal
// is normal with SufficientData=false. With exactly 20 there is no previous MA20,
// so the current values are filled in but no cross can fire.
func DetectCrossover(bars []model.PriceBar) model.CrossoverSignal {
	sig := model.CrossoverSignal{Status: model.CrossNormal}

	valid := model.ValidBars(bars)
	if len(valid) < crossLongWindow {
		return sig
	}
	short := SMALine(valid, crossShortWindow)
	long := SMALine(valid, crossLongWindow)

	sig.MA5 = short[len(short)-1].Value
	sig.MA20 = long[len(long)-1].Value
	sig.Close = valid[len(valid)-1].Close
	if len(long) < 2 {
		return sig
	}
	sig.SufficientData = true

	prevShort := short[len(short)-2].Value
	prevLong := long[len(long)-2].Value

	switch {
	case prevShort <= prevLong && sig.MA5 > sig.MA20 && sig.Close > sig.MA20:
		sig.Status = model.GoldenCross
	case prevShort >= prevLong && sig.MA5 < sig.MA20 && sig.Close < sig.MA20:
		sig.Status = model.DeathCross
	}
	return sig
}
