package domain

import "fmt"

// Location is one row of the village dataset: a village resolved to WGS-84
// coordinates through the district → taluka → village hierarchy. A village
// name is unique within its (district, taluka) pair.
type Location struct {
	District string  `json:"district"`
	Taluka   string  `json:"taluka"`
	Village  string  `json:"village"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// NotFoundError reports a lookup for a village that is not in the dataset.
// It aborts the single request; the risk pipeline never runs without a
// resolved location.
type NotFoundError struct {
	District string
	Taluka   string
	Village  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("location not found: %s / %s / %s", e.District, e.Taluka, e.Village)
}
