package parse

import (
	"regexp"
)

// BatchPoint is the measurement triple for one configured batch size.
type BatchPoint struct {
	BatchSize     int
	QueriesPerSec float64
	UploadMB      float64
	DownloadMB    float64
}

// All returns every match of re in order; the count must equal want.
func All(metric string, re *regexp.Regexp, out string, want int) ([]float64, error) {
	matches := re.FindAllStringSubmatch(out, -1)
	if len(matches) != want {
		return nil, &Failure{Metric: metric, Pattern: re.String(), Want: want, Got: len(matches)}
	}
	vals := make([]float64, len(matches))
	for i, m := range matches {
		v, err := toFloat(metric, m[1])
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// BatchSeries pairs the i-th queries-per-second, upload and download match with batchSizes[i].
func BatchSeries(out string, batchSizes []int) ([]BatchPoint, error) {
	qps, err := All("queries per second", QueriesPerSecPattern, out, len(batchSizes))
	if err != nil {
		return nil, err
	}
	up, err := All("upload size", UploadPattern, out, len(batchSizes))
	if err != nil {
		return nil, err
	}
	down, err := All("download size", DownloadPattern, out, len(batchSizes))
	if err != nil {
		return nil, err
	}

	points := make([]BatchPoint, len(batchSizes))
	for i, bs := range batchSizes {
		points[i] = BatchPoint{
			BatchSize:     bs,
			QueriesPerSec: qps[i],
			UploadMB:      up[i],
			DownloadMB:    down[i],
		}
	}
	return points, nil
}
