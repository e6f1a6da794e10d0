// Package annualref models annual-reference energy consumption for building
// delivery points from monthly invoices.
//
// The pipeline imputes missing invoices, detects and corrects anomalous
// months, fits a linear model on heating/cooling degree days and falls back
// to a trivial mean model when the data cannot support regression. Every
// decision is recorded as a coded diagnostic message so each result explains
// its own provenance.
//
// # Quick start
//
// Train one (delivery point, fluid) pair from prepared model tables:
//
//	log := &diag.Log{}
//	train, test, err := dataset.SplitTrainTest(table, refStart, refEnd, predStart, predEnd, log)
//	if err != nil {
//		// prediction window spans more than one calendar year
//	}
//	cls := dataset.ClassifyColumns(table.Columns)
//	result := model.Train(train, test, "elec", "pdl-123", cls.Influencing, cls.Usage, log)
//
// # Packages
//
//   - timeseries: monthly series and month-key arithmetic
//   - stats: decomposition, quantiles, smoothing, accuracy metrics
//   - impute: gap filling (linear, structural, seasonal)
//   - outlier: iterated anomaly detection
//   - dataset: invoice proration, degree-day/usage pivots, model tables
//   - degreeday: degree-day regression with confidence bounds
//   - model: decision engine, postprocessing, training orchestration
//   - diag: coded diagnostic message log
//   - store, service, config: persistence and per-building run orchestration
package annualref
