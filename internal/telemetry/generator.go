package telemetry

import "remoteid-beacon/internal/remoteid"

// Motion is the fixed per-tick change applied by the Generator.
type Motion struct {
	StepLon    float64 // degrees
	StepLat    float64 // degrees
	StepHeight float64 // m
	Speed      float64 // m/s once moving
	Course     float64 // degrees once moving
}

// DefaultMotion climbs 0.1 m and drifts north-east each tick.
func DefaultMotion() Motion {
	return Motion{StepLon: 0.00001, StepLat: 0.00001, StepHeight: 0.1, Speed: 3, Course: 45}
}

// Generator simulates a drone moving in a straight line away from its
// take-off point. It stands in for a real position feed.
type Generator struct {
	uasID   remoteid.ID
	home    remoteid.Coordinate
	homeAlt float64
	motion  Motion

	pos    remoteid.Coordinate
	alt    float64
	height float64
	speed  float64
	course float64
}

// NewGenerator starts a drone at rest on start.
func NewGenerator(uasID remoteid.ID, start Position, motion Motion) *Generator {
	home := remoteid.Coordinate{Lon: start.Lon, Lat: start.Lat}
	return &Generator{
		uasID:   uasID,
		home:    home,
		homeAlt: start.Alt,
		motion:  motion,
		pos:     home,
		alt:     start.Alt,
	}
}

// Next returns the current record and advances the drone by one tick.
func (g *Generator) Next() remoteid.Record {
	r := remoteid.Record{
		UASID:    g.uasID,
		Position: g.pos,
		Altitude: g.alt,
		Height:   g.height,
		Home:     g.home,
		Speed:    g.speed,
		Course:   g.course,
	}

	g.pos.Lon += g.motion.StepLon
	g.pos.Lat += g.motion.StepLat
	g.height += g.motion.StepHeight
	g.alt = g.homeAlt + g.height
	g.speed = g.motion.Speed
	g.course = g.motion.Course
	return r
}
