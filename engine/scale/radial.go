package scale

// FullTurn is the size of the circular hue domain in degrees.
const FullTurn = 360

// NormalizeAngle wraps an angle in degrees into [0,360).
func NormalizeAngle(angle int) int {
	angle %= FullTurn
	if angle < 0 {
		angle += FullTurn
	}
	return angle
}

// RadialStep moves current towards target by at most step degrees along the
// shorter arc of the circle. Once the circular distance is within one step the
// target itself is returned, so repeated calls converge without oscillating.
func RadialStep(current, target, step int) int {
	current = NormalizeAngle(current)
	target = NormalizeAngle(target)

	diff := target - current
	dist := diff
	if dist < 0 {
		dist = -dist
	}
	if dist <= step || FullTurn-dist <= step {
		return target
	}

	sign := 1
	if diff < 0 {
		sign = -1
	}
	// going the other way round is shorter
	if dist > FullTurn/2 {
		sign = -sign
	}
	return NormalizeAngle(current + sign*step)
}
