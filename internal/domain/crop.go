package domain

import (
	"fmt"
	"strings"
)

// Crop identifies which trained classifier scores a risk check.
type Crop string

const (
	CropRice   Crop = "rice"
	CropCotton Crop = "cotton"
)

// SupportedCrops returns every crop the service has a model for.
func SupportedCrops() []Crop {
	return []Crop{CropRice, CropCotton}
}

// ParseCrop normalizes user input into a Crop.
func ParseCrop(s string) (Crop, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rice":
		return CropRice, nil
	case "cotton":
		return CropCotton, nil
	default:
		return "", fmt.Errorf("unknown crop %q (supported: rice, cotton)", s)
	}
}
