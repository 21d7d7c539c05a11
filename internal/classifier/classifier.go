package classifier

import (
	"context"
	"strings"
)

// Categories the classifier may return. Anything else is folded into Other.
var Categories = []string{"Pothole", "Garbage", "Streetlight", "Graffiti", "Flooding", "Damaged Signage", "Other"}

const (
	CategoryOther = "Other"
	fallbackTitle = "Issue Report (Fallback)"
)

// Image is a photo handed to the classifier alongside the description.
type Image struct {
	ContentType string
	Data        []byte
}

// Result is the classifier's verdict.
type Result struct {
	Category string
	Title    string
}

// Classifier assigns a category and a short title to a report.
type Classifier interface {
	Classify(ctx context.Context, description string, images []Image) (Result, error)
}

// Fallback is used when no external classifier is configured.
type Fallback struct{}

// Classify always succeeds with the Other category.
func (Fallback) Classify(context.Context, string, []Image) (Result, error) {
	return Result{Category: CategoryOther, Title: fallbackTitle}, nil
}

// NormalizeCategory maps an arbitrary label onto Categories, case-insensitively.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	for _, known := range Categories {
		if strings.EqualFold(known, category) {
			return known
		}
	}
	return CategoryOther
}
