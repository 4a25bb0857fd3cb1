package stats

// Summary describes the distribution of one score column
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Summarize computes a Summary; an empty slice yields the zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{
		Count:  len(values),
		Mean:   Mean(values),
		StdDev: StdDev(values),
	}
	s.Min, s.Q1, s.Median, s.Q3, s.Max = FiveNumberSummary(values)
	return s
}
