package model

import (
	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/degreeday"
	"github.com/fenixforecast/annualref/diag"
)

// TrainingResult is the full payload of one pair's training run.
type TrainingResult struct {
	PDL    string
	Fluid  string
	Status TrainStatus
	// Model is nil when Status is StatusNoReferenceData.
	Model *degreeday.Result
	// MeanFallback is true when Model is the mean model rather than a
	// degree-day regression.
	MeanFallback bool
	OutlierRows  []OutlierRow
	Messages     []diag.Message
}

// Train runs the full pipeline for one (delivery point, fluid) pair. The
// caller may pass a log that already carries preprocessing diagnostics;
// TrainingResult.Messages captures the complete ordered log.
func Train(train, test dataset.Table, fluid, pdl string, influencing, usage []string, log *diag.Log) TrainingResult {
	if log == nil {
		log = &diag.Log{}
	}
	res := TrainingResult{PDL: pdl, Fluid: fluid}

	res.Status = Decide(train, fluid, pdl, log)
	switch res.Status {
	case StatusNoReferenceData:
		res.Messages = log.Messages()
		return res

	case StatusTooFewObservations:
		res.Model = MeanModel(train, test)
		res.MeanFallback = true

	case StatusOkAnnualReference:
		heating, cooling := degreeday.ChooseBest(train, train.Values())
		post := BuildY(train, heating, cooling, log)
		res.OutlierRows = post.OutlierRows

		res.Model = degreeday.Run(post.Table, test, post.Y, degreeday.Options{
			Heating:     heating,
			Cooling:     cooling,
			Forced:      true,
			Usage:       usage,
			Influencing: influencing,
		}, log)
		if res.Model == nil {
			log.Appendf(diag.CodeNote,
				"degree-day model unusable for %s (%s), falling back to the mean model", pdl, fluid)
			res.Model = MeanModel(train, test)
			res.MeanFallback = true
		}
	}

	log.Appendf(diag.CodeAnnualReference,
		"annual consumption reference for %s (%s): %.2f", pdl, fluid, res.Model.AnnualReference)
	res.Messages = log.Messages()
	return res
}
