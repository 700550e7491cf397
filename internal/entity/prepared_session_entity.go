package entity

import "time"

// Risk labels assigned to sessions by the preparation system.
const (
	RiskLabelNormal   = "normal"
	RiskLabelModerate = "moderate"
	RiskLabelHigh     = "high"
)

// NumericFeatureNames lists the feature columns that carry numeric values,
// in the order charts and summaries present them.
var NumericFeatureNames = []string{
	"median_longitude",
	"median_latitude",
	"mean_diff_time",
	"mean_diff_amount",
}

// PreparedSession is one unit of labeled feature data awaiting segregation.
// The uuid is assigned upstream by the preparation system and is opaque here.
type PreparedSession struct {
	Uuid            string
	Label           string
	MedianLongitude float64
	MedianLatitude  float64
	MeanDiffTime    float64
	MeanDiffAmount  float64
	MedianTargetIP  string
	MedianDestIP    string
	// Processed is set only after the session was part of an acknowledged
	// dispatch to the development system.
	Processed bool
	// Deferred marks rows that arrived while a review cycle was in flight;
	// they join the next accumulation cycle instead of the current batch.
	Deferred  bool
	CreatedAt time.Time
}

// NumericFeatures returns the numeric feature values keyed by feature name,
// matching NumericFeatureNames.
func (s *PreparedSession) NumericFeatures() map[string]float64 {
	return map[string]float64{
		"median_longitude": s.MedianLongitude,
		"median_latitude":  s.MedianLatitude,
		"mean_diff_time":   s.MeanDiffTime,
		"mean_diff_amount": s.MeanDiffAmount,
	}
}
