package dto

// PreparedSessionPayload is one labeled feature row as sent by the
// preparation system. Numeric fields are pointers so an absent value is
// distinguishable from a legitimate zero.
type PreparedSessionPayload struct {
	Uuid            string   `json:"uuid" validate:"required,uuid"`
	Label           string   `json:"label" validate:"required,oneof=normal moderate high"`
	MedianLongitude *float64 `json:"median_longitude" validate:"required"`
	MedianLatitude  *float64 `json:"median_latitude" validate:"required"`
	MeanDiffTime    *float64 `json:"mean_diff_time" validate:"required"`
	MeanDiffAmount  *float64 `json:"mean_diff_amount" validate:"required"`
	MedianTargetIP  string   `json:"median_targetIP" validate:"required,ip"`
	MedianDestIP    string   `json:"median_destIP" validate:"required,ip"`
}

type StoreSessionsRequest struct {
	Sessions []PreparedSessionPayload `json:"sessions" validate:"required,min=1,dive"`
}

type StoreSessionsResponse struct {
	Stored int `json:"stored"`
	// Deferred is true when the batch arrived mid-review and will join
	// the next accumulation cycle.
	Deferred bool `json:"deferred"`
}

type SessionCountResponse struct {
	Pending   int64 `json:"pending"`
	Deferred  int64 `json:"deferred"`
	Processed int64 `json:"processed"`
	Threshold int   `json:"threshold"`
}
