// Replicate reliability over the practices of one experiment, mirroring
// common laboratory QC practice: duplicates are judged by percent
// difference, triplicates (and up) by coefficient of variation.
package stats

import "math"

// Kind selects which acceptance threshold applies.
type Kind string

const (
	KindTime Kind = "time" // heating time, minutes
	KindTemp Kind = "temp" // peak temperature, °C
)

type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusNA   Status = "na"
)

const (
	MetricDiff = "diff%"
	MetricCV   = "CV%"
)

// Criteria holds the acceptance thresholds, in percent. Warn is a band of
// WarnFactor times the ok threshold; beyond that the verdict is fail.
type Criteria struct {
	TimeOKPct  float64 `toml:"time_ok_pct"`
	TempOKPct  float64 `toml:"temp_ok_pct"`
	WarnFactor float64 `toml:"warn_factor"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		TimeOKPct:  8,
		TempOKPct:  3,
		WarnFactor: 1.5,
	}
}

// Verdict is the three-tier reproducibility classification for one kind of
// measurement. Value is the metric in percent, rounded to 2 decimals; it is
// nil when fewer than two valid measurements exist.
type Verdict struct {
	Status Status   `json:"status"`
	Metric string   `json:"metric,omitempty"`
	Value  *float64 `json:"value,omitempty"`
}

// CleanPositives keeps only finite, strictly positive values. Zero means
// "not yet recorded" in practice records, never a true measurement.
func CleanPositives(values []float64) []float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 {
			clean = append(clean, v)
		}
	}
	return clean
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleSD is the Bessel-corrected standard deviation (n-1 divisor).
// Fewer than two values cannot support a variance estimate; that yields 0.
func SampleSD(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// CVPercent is 100·sd/|mean|, or 0 when the mean is zero or non-finite.
func CVPercent(values []float64) float64 {
	m := Mean(values)
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	return SampleSD(values) / math.Abs(m) * 100
}

// DuplicateDiffPercent is the normalized absolute difference between
// exactly two replicate values: 100·|a−b| / ((a+b)/2).
func DuplicateDiffPercent(a, b float64) float64 {
	avg := (a + b) / 2
	if avg == 0 || math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0
	}
	return math.Abs(a-b) / avg * 100
}

// Classify produces the reproducibility verdict for one kind of
// measurement across an experiment's practices. Non-positive and
// non-finite values are dropped first.
func (c Criteria) Classify(kind Kind, values []float64) Verdict {
	valid := CleanPositives(values)

	if len(valid) < 2 {
		return Verdict{Status: StatusNA}
	}

	ok := c.threshold(kind)
	warn := ok * c.WarnFactor

	var metric string
	var v float64
	if len(valid) == 2 {
		metric = MetricDiff
		v = DuplicateDiffPercent(valid[0], valid[1])
	} else {
		metric = MetricCV
		v = CVPercent(valid)
	}

	status := StatusFail
	switch {
	case v <= ok:
		status = StatusOK
	case v <= warn:
		status = StatusWarn
	}

	rounded := round2(v)
	return Verdict{Status: status, Metric: metric, Value: &rounded}
}

func (c Criteria) threshold(kind Kind) float64 {
	if kind == KindTemp {
		return c.TempOKPct
	}
	return c.TimeOKPct
}

// Summary is the descriptive-statistics block shown next to the verdict.
// All fields except N are nil when no valid values exist.
type Summary struct {
	N     int      `json:"n"`
	Mean  *float64 `json:"mean"`
	SD    *float64 `json:"sd"`
	CV    *float64 `json:"cv"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Range *float64 `json:"range"`
}

func Summarize(values []float64) Summary {
	clean := CleanPositives(values)
	if len(clean) == 0 {
		return Summary{}
	}

	m := Mean(clean)
	s := SampleSD(clean)
	min, max := clean[0], clean[0]
	for _, v := range clean[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := Summary{
		N:     len(clean),
		Mean:  ptr(round2(m)),
		SD:    ptr(round2(s)),
		Min:   ptr(round2(min)),
		Max:   ptr(round2(max)),
		Range: ptr(round2(max - min)),
	}
	if m != 0 {
		out.CV = ptr(round2(s / math.Abs(m) * 100))
	}
	return out
}

// round2 is a plain 2-decimal round; inputs here are already derived, so
// no epsilon guard is needed.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func ptr(v float64) *float64 {
	return &v
}
