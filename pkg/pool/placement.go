package pool

// Vec3 is a position.
type Vec3 struct {
	X, Y, Z float64
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// Identity is the rotation that leaves an object unrotated.
var Identity = Quat{W: 1}

// Placement carries the overrides applied to an instance on acquisition.
type Placement struct {
	Position Vec3
	Rotation Quat
	Parent   Parent
}

// PlaceOption overrides one part of the default placement (origin, identity
// rotation, no parent).
type PlaceOption func(*Placement)

// At places the instance at position.
func At(position Vec3) PlaceOption {
	return func(p *Placement) {
		p.Position = position
	}
}

// Rotated sets the rotation of the instance.
func Rotated(rotation Quat) PlaceOption {
	return func(p *Placement) {
		p.Rotation = rotation
	}
}

// Under attaches the instance to parent.
func Under(parent Parent) PlaceOption {
	return func(p *Placement) {
		p.Parent = parent
	}
}

func newPlacement(opts []PlaceOption) Placement {
	placement := Placement{Rotation: Identity}
	for _, opt := range opts {
		opt(&placement)
	}
	return placement
}
