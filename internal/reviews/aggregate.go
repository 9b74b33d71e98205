package reviews

import "github.com/angelmondragon/nearbuy-backend/pkg/db/models"

// DefaultRating is the aggregate of a store nobody has reviewed yet.
const DefaultRating = 4.5

// MeanRating averages the ratings, or returns DefaultRating for none.
func MeanRating(rows []models.StoreReview) float64 {
	if len(rows) == 0 {
		return DefaultRating
	}
	sum := 0
	for _, r := range rows {
		sum += r.Rating
	}
	return float64(sum) / float64(len(rows))
}
