// Package degreeday fits linear consumption models on heating and cooling
// degree-day predictors.
//
// Candidate base temperatures are scored independently by adjusted R² of a
// univariate fit; the winning heating and cooling columns (plus any usage
// and influencing covariates) enter an ordinary least-squares fit solved by
// singular value decomposition, so a rank-deficient design degrades
// gracefully instead of failing. Predictions carry two-sided 95% confidence
// bounds from the Student-t distribution of the training fit.
//
// The package never panics on bad data: an unusable model is reported as a
// nil result, signalling the caller to fall back to the mean model.
package degreeday
