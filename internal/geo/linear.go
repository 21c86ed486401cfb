package geo

import (
	"math"

	"github.com/shirolong/channelcore/internal/model"
)

// GetLinearPoint returns the point offset by distance d from (sx, sy) along
// the line toward (tx, ty), or in the opposite direction when away is true.
// A target equal to the source returns the source unchanged, avoiding a
// division by zero.
func GetLinearPoint(sx, sy, tx, ty float32, d float64, away bool) model.Point {
	dx := float64(tx - sx)
	dy := float64(ty - sy)

	if dx == 0 && dy == 0 {
		return model.Point{X: sx, Y: sy}
	}

	length := math.Hypot(dx, dy)
	ux, uy := dx/length, dy/length
	if away {
		ux, uy = -ux, -uy
	}

	return model.Point{
		X: sx + float32(ux*d),
		Y: sy + float32(uy*d),
	}
}
