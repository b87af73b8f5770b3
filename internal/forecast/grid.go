package forecast

import "math"

// Lambert Conformal Conic parameters of the provider's 5 km grid.
const (
	earthRadiusKm = 6371.00877
	gridSpacingKm = 5.0
	standardLat1  = 30.0
	standardLat2  = 60.0
	originLon     = 126.0
	originLat     = 38.0
	originX       = 43
	originY       = 136

	// Documented extent of the grid.
	MaxNX = 149
	MaxNY = 253
)

const degToRad = math.Pi / 180.0

// lcc holds the derived projection terms. They depend only on the constants
// above, so one value is computed at package init and shared read-only.
type lcc struct {
	re, sn, sf, ro, olon float64
}

var grid = newLCC()

func newLCC() lcc {
	re := earthRadiusKm / gridSpacingKm
	slat1 := standardLat1 * degToRad
	slat2 := standardLat2 * degToRad
	olat := originLat * degToRad

	sn := math.Log(math.Cos(slat1)/math.Cos(slat2)) /
		math.Log(math.Tan(math.Pi*0.25+slat2*0.5)/math.Tan(math.Pi*0.25+slat1*0.5))
	sf := math.Pow(math.Tan(math.Pi*0.25+slat1*0.5), sn) * math.Cos(slat1) / sn
	ro := re * sf / math.Pow(math.Tan(math.Pi*0.25+olat*0.5), sn)

	return lcc{re: re, sn: sn, sf: sf, ro: ro, olon: originLon * degToRad}
}

// Project maps a coordinate onto the forecast grid.
func Project(c Coordinate) (GridCell, error) {
	if err := c.Validate(); err != nil {
		return GridCell{}, err
	}

	ra := grid.re * grid.sf / math.Pow(math.Tan(math.Pi*0.25+c.Latitude*degToRad*0.5), grid.sn)
	theta := wrapAngle(c.Longitude*degToRad-grid.olon) * grid.sn

	x := ra*math.Sin(theta) + originX
	y := grid.ro - ra*math.Cos(theta) + originY
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return GridCell{}, &ProjectionError{Coordinate: c, Reason: "coordinate cannot be projected"}
	}

	cell := GridCell{
		NX: int(math.Floor(x + 0.5)),
		NY: int(math.Floor(y + 0.5)),
	}
	if !cell.Valid() {
		return GridCell{}, &ProjectionError{Coordinate: c, Cell: &cell, Reason: "outside the forecast grid"}
	}
	return cell, nil
}

// Valid reports whether the cell lies inside the documented grid.
func (g GridCell) Valid() bool {
	return g.NX >= 1 && g.NX <= MaxNX && g.NY >= 1 && g.NY <= MaxNY
}

// Coordinate returns the position of the cell centre (inverse projection).
func (g GridCell) Coordinate() Coordinate {
	xn := float64(g.NX - originX)
	yn := grid.ro - float64(g.NY-originY)

	ra := math.Sqrt(xn*xn + yn*yn)
	if grid.sn < 0 {
		ra = -ra
	}
	alat := math.Pow(grid.re*grid.sf/ra, 1.0/grid.sn)
	alat = 2.0*math.Atan(alat) - math.Pi*0.5

	var theta float64
	switch {
	case math.Abs(xn) <= 0:
		theta = 0
	case math.Abs(yn) <= 0:
		theta = math.Pi * 0.5
		if xn < 0 {
			theta = -theta
		}
	default:
		theta = math.Atan2(xn, yn)
	}
	alon := theta/grid.sn + grid.olon

	return Coordinate{
		Latitude:  alat / degToRad,
		Longitude: alon / degToRad,
	}
}

// wrapAngle brings a longitude difference into (-π, π].
func wrapAngle(theta float64) float64 {
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta <= -math.Pi {
		theta += 2.0 * math.Pi
	}
	return theta
}
