package geo

import (
	"fmt"
	"math"
	"strconv"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in km rounded to 0.1 km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusKm*c*10) / 10
}

// Distance is the haversine distance between two resolved places.
func Distance(a, b *Location) float64 {
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// ScoreForDistance maps a distance to a non-increasing step score.
func ScoreForDistance(km float64) float64 {
	switch {
	case km <= 5:
		return 1.0
	case km <= 20:
		return 0.9
	case km <= 50:
		return 0.7
	case km <= 100:
		return 0.5
	case km <= 200:
		return 0.3
	default:
		return 0.1
	}
}

func describeDistance(km float64, hybrid bool) string {
	d := formatKm(km)
	var text string
	switch {
	case km <= 5:
		text = fmt.Sprintf("Excellent match - %skm away", d)
	case km <= 20:
		text = fmt.Sprintf("Great match - %skm commutable", d)
	case km <= 50:
		text = fmt.Sprintf("Good match - %skm in region", d)
	case km <= 100:
		text = fmt.Sprintf("Fair match - %skm same area", d)
	case km <= 200:
		text = fmt.Sprintf("Moderate match - %skm nearby", d)
	default:
		text = fmt.Sprintf("Distant match - %skm away", d)
	}
	if hybrid {
		text += " (hybrid eligible)"
	}
	return text
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
