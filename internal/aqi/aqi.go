package aqi

import "math"

// breakpoint is one row of an EPA AQI table: concentrations cLo..cHi map
// linearly onto index values iLo..iHi.
type breakpoint struct {
	cLo, cHi float64
	iLo, iHi float64
}

// EPA 24h breakpoints. PM2.5 concentrations are defined to 0.1 µg/m³,
// PM10 to 1 µg/m³.
var pm25Breakpoints = []breakpoint{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 350.4, 301, 400},
	{350.5, 500.4, 401, 500},
}

var pm10Breakpoints = []breakpoint{
	{0, 54, 0, 50},
	{55, 154, 51, 100},
	{155, 254, 101, 150},
	{255, 354, 151, 200},
	{355, 424, 201, 300},
	{425, 504, 301, 400},
	{505, 604, 401, 500},
}

// Compute converts raw PM2.5 and PM10 concentrations (µg/m³) to the AQI:
// each pollutant is interpolated through its breakpoint table and the
// larger sub-index wins. Out-of-range inputs clamp to the nearest defined
// breakpoint, so sensor noise can never make this fail.
func Compute(pm25, pm10 float64) float64 {
	i25 := subIndex(truncate(pm25, 10), pm25Breakpoints)
	i10 := subIndex(truncate(pm10, 1), pm10Breakpoints)
	return math.Max(i25, i10)
}

// truncate drops precision below the table resolution (scale 10 keeps one
// decimal, scale 1 keeps integers) so values fall inside a band, not in the
// gap between two.
func truncate(c float64, scale float64) float64 {
	return math.Trunc(c*scale) / scale
}

func subIndex(c float64, table []breakpoint) float64 {
	if c <= 0 {
		return 0
	}
	top := table[len(table)-1]
	if c > top.cHi {
		return top.iHi
	}
	for _, b := range table {
		if c <= b.cHi {
			frac := (c - b.cLo) / (b.cHi - b.cLo)
			return math.Round(b.iLo + frac*(b.iHi-b.iLo))
		}
	}
	return top.iHi
}
