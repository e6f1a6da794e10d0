package stats

import "math"

// Accuracy holds the fit-quality metrics of a reference model.
//
// The error convention is error = fitted − actual, and the percentage
// metrics divide by the fitted value, restricted to pairs with a nonzero
// fitted value. This mirrors the historically swapped-argument convention of
// the legacy accuracy routine and is a fixed contract; do not "correct" it
// to the usual actual-denominator form.
type Accuracy struct {
	ME   float64
	RMSE float64
	MAE  float64
	MPE  float64
	MAPE float64
	R2   float64
}

// Regression computes accuracy metrics for paired (actual, fitted) values.
// Non-finite pairs are excluded from every metric; all-non-finite input
// yields all-NaN metrics rather than an error.
func Regression(actual, fitted []float64) Accuracy {
	nan := math.NaN()
	out := Accuracy{ME: nan, RMSE: nan, MAE: nan, MPE: nan, MAPE: nan, R2: nan}
	if len(actual) != len(fitted) {
		return out
	}

	var a, f []float64
	for i := range actual {
		if isFinite(actual[i]) && isFinite(fitted[i]) {
			a = append(a, actual[i])
			f = append(f, fitted[i])
		}
	}
	n := len(a)
	if n == 0 {
		return out
	}

	var me, sse, mae float64
	for i := 0; i < n; i++ {
		err := f[i] - a[i]
		me += err
		sse += err * err
		mae += math.Abs(err)
	}
	out.ME = me / float64(n)
	out.RMSE = math.Sqrt(sse / float64(n))
	out.MAE = mae / float64(n)

	// Percentage metrics over pairs with nonzero fitted value only.
	var mpe, mape float64
	npct := 0
	for i := 0; i < n; i++ {
		if f[i] == 0 {
			continue
		}
		pe := 100 * (f[i] - a[i]) / f[i]
		mpe += pe
		mape += math.Abs(pe)
		npct++
	}
	if npct > 0 {
		out.MPE = mpe / float64(npct)
		out.MAPE = mape / float64(npct)
	}

	mean := 0.0
	for _, v := range a {
		mean += v
	}
	mean /= float64(n)
	var ssTot float64
	for _, v := range a {
		d := v - mean
		ssTot += d * d
	}
	if ssTot > 0 {
		out.R2 = 1 - sse/ssTot
	}
	return out
}

// RSquared computes R² and adjusted R² of a fit with pExpl explanatory
// variables (intercept excluded), over the finite (y, yhat) pairs.
// Both are NaN when fewer than three pairs exist; adjusted R² is NaN when
// its denominator n−pExpl−1 is non-positive.
func RSquared(y, yhat []float64, pExpl int) (r2, adjR2 float64) {
	r2, adjR2 = math.NaN(), math.NaN()
	if len(y) != len(yhat) {
		return
	}

	var yy, ff []float64
	for i := range y {
		if isFinite(y[i]) && isFinite(yhat[i]) {
			yy = append(yy, y[i])
			ff = append(ff, yhat[i])
		}
	}
	n := len(yy)
	if n < 3 {
		return
	}

	mean := 0.0
	for _, v := range yy {
		mean += v
	}
	mean /= float64(n)

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		r := yy[i] - ff[i]
		ssRes += r * r
		d := yy[i] - mean
		ssTot += d * d
	}
	if ssTot <= 1e-12 {
		return
	}
	r2 = 1 - ssRes/ssTot

	denom := float64(n - pExpl - 1)
	if denom <= 0 || !isFinite(r2) {
		return
	}
	adjR2 = 1 - (1-r2)*float64(n-1)/denom
	return
}
