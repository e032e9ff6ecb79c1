package dashboard

import (
	"time"

	"github.com/haesinais/aisdash/internal/vessel"
)

// Bucket is one bar of a chart
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Charts are the summary charts shown next to the map
type Charts struct {
	ReportAge []Bucket `json:"report_age"` // Minutes since last position report
	Speed     []Bucket `json:"speed"`      // Speed over ground in knots
	Undated   int      `json:"undated"`    // Records without a readable timestamp
}

type bucketBound struct {
	upTo  float64 // inclusive upper bound
	label string
}

var reportAgeBounds = []bucketBound{
	{30, "30m"},
	{60, "1h"},
	{90, "1h30m"},
}

const reportAgeOverflow = "2h"

var speedBounds = []bucketBound{
	{0.5, "stopped"},
	{5, "0-5kn"},
	{10, "5-10kn"},
	{15, "10-15kn"},
	{20, "15-20kn"},
}

const speedOverflow = "20kn+"

// BuildCharts computes the summary charts for list as of now
func BuildCharts(list []vessel.Record, now time.Time) Charts {
	charts := Charts{
		ReportAge: newBuckets(reportAgeBounds, reportAgeOverflow),
		Speed:     newBuckets(speedBounds, speedOverflow),
	}

	for _, r := range list {
		addTo(charts.Speed, speedBounds, r.Speed)

		ts, ok := r.ReportTime()
		if !ok {
			charts.Undated++
			continue
		}
		addTo(charts.ReportAge, reportAgeBounds, now.Sub(ts).Minutes())
	}

	return charts
}

func newBuckets(bounds []bucketBound, overflow string) []Bucket {
	buckets := make([]Bucket, 0, len(bounds)+1)
	for _, b := range bounds {
		buckets = append(buckets, Bucket{Label: b.label})
	}
	return append(buckets, Bucket{Label: overflow})
}

func addTo(buckets []Bucket, bounds []bucketBound, v float64) {
	for i, b := range bounds {
		if v <= b.upTo {
			buckets[i].Count++
			return
		}
	}
	buckets[len(buckets)-1].Count++
}
