package strat

// TableWidth is the short side of the table, in mm. The canonical frame is
// the red-side frame; blue-side coordinates mirror across the centerline.
const TableWidth = 2000.0

// TableLength is the long side of the table, in mm.
const TableLength = 3000.0

// MirrorY maps a canonical y coordinate into the robot's actual frame.
// Identity for red; reflection across the table width for blue. Apply it
// exactly once, immediately before issuing a physical command.
func MirrorY(y float64, c Color) float64 {
	if c == ColorBlue {
		return TableWidth - y
	}
	return y
}

// MirrorAngle maps a canonical angle into the robot's actual frame.
func MirrorAngle(a float64, c Color) float64 {
	if c == ColorBlue {
		return -a
	}
	return a
}

// MirrorPoint maps a canonical point into the robot's actual frame.
func MirrorPoint(p Point, c Color) Point {
	return Point{X: p.X, Y: MirrorY(p.Y, c)}
}
