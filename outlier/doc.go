// Package outlier flags anomalous points in monthly series.
//
// Detection runs as an iterated pipeline: interpolate remaining gaps,
// seasonally adjust when the seasonal signal is strong, smooth with a locally
// weighted scatterplot smoother, and flag residuals outside robust IQR
// bounds. Flagged points are blanked out before the next pass so they cannot
// bias the next round's smoothing or quartiles. Positions that were missing
// in the input are never flagged.
package outlier
