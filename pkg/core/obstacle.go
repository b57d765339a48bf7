package core

// ObstacleID identifies a dynamic obstacle for as long as it exists in the scene.
// It is a handle, never a reference to the obstacle object itself.
type ObstacleID string

// DefaultPedestrianAge is assumed when a query hit carries no age.
const DefaultPedestrianAge = 30

// Obstacle is a single spatial query hit.
type Obstacle struct {
	ID       ObstacleID
	Position Point3
	Forward  Point3  // facing direction, used for extrapolation
	Radius   float64 // bounding shape reduced to a radius
	Age      int     // 0 when unknown
	Layer    LayerMask
}

// EffectiveAge returns Age, or DefaultPedestrianAge when Age is unset.
func (o Obstacle) EffectiveAge() int {
	if o.Age <= 0 {
		return DefaultPedestrianAge
	}
	return o.Age
}
