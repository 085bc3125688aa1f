// Package elo maps player ratings onto the rating categories the network
// was trained with.
package elo

const (
	// Ratings below Low fall into category 0.
	Low = 1100
	// Ratings at or above High fall into the last category.
	High = 2000
	// Step is the width of every intermediate bucket.
	Step = 100

	NumCategories = (High-Low)/Step + 2
)

// Buckets lists a representative rating per category. The first entry
// stands for everything below 1100 and the last for 2000 and above.
var Buckets = [NumCategories]int{
	1000, 1100, 1200, 1300, 1400, 1500, 1600, 1700, 1800, 1900, 2000,
}

// Category returns the category index in [0,10] for a rating.
func Category(rating int) int64 {
	switch {
	case rating < Low:
		return 0
	case rating >= High:
		return NumCategories - 1
	default:
		return int64((rating-Low)/Step + 1)
	}
}

// Bucketize converts ratings element-wise, preserving order.
func Bucketize(ratings []int) []int64 {
	categories := make([]int64, len(ratings))
	for i, r := range ratings {
		categories[i] = Category(r)
	}
	return categories
}

// LowerBound returns the representative rating of a category. Out of range
// categories are clamped.
func LowerBound(category int64) int {
	if category < 0 {
		category = 0
	}
	if category >= NumCategories {
		category = NumCategories - 1
	}
	return Buckets[category]
}
