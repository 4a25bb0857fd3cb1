package models

// TripFilter represents filter parameters for querying trips
type TripFilter struct {
	BatchID  string `form:"batch"`
	Scored   *bool  `form:"scored"` // only trips with (true) or without (false) a cost
	QAStatus string `form:"qa"`     // passed or rejected
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}
