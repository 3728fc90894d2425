package layout

import (
	"math"
	"math/rand/v2"

	"github.com/persistorai/mindmap/internal/models"
)

type body struct {
	key    string
	x, y   float64
	vx, vy float64
	fx, fy float64
	mass   float64
	radius float64
	pinned bool
	held   bool
}

func (b *body) frozen() bool { return b.pinned || b.held }

type spring struct {
	from, to int
}

// Simulation integrates node positions under the active force profile.
// It is not safe for concurrent use.
type Simulation struct {
	bodies     []*body
	index      map[string]int
	springs    []spring
	params     Params
	rng        *rand.Rand
	stabilized bool
	reheated   bool
	moving     bool
	iterations int
}

// NewSimulation creates an empty simulation seeded for reproducible layouts.
func NewSimulation(seed uint64) *Simulation {
	return &Simulation{
		index:  make(map[string]int),
		params: InitialParams,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		moving: true,
	}
}

// Sync replaces the simulated set with nodes and links. Bodies whose node
// survives keep their position and velocity; new bodies start next to an
// already placed neighbour or at a seeded random point. Pinned nodes sit at
// their stored coordinates. A node that stops being pinned starts from rest.
// New bodies and any change in pinning wake a settled simulation.
func (s *Simulation) Sync(nodes []*models.Node, links []*models.Link) {
	old := s.bodies
	oldIndex := s.index

	s.bodies = make([]*body, 0, len(nodes))
	s.index = make(map[string]int, len(nodes))

	var (
		fresh []*body
		woken bool
	)

	for _, n := range nodes {
		key := n.ID.Key()
		if _, dup := s.index[key]; dup {
			continue
		}

		var b *body
		if i, ok := oldIndex[key]; ok {
			b = old[i]
		} else {
			b = &body{key: key, mass: nodeMass}
			fresh = append(fresh, b)
		}

		b.radius = NodeRadius(n.Weight)

		if pos, ok := n.PinnedAt(); ok {
			if !b.pinned || b.x != pos.X || b.y != pos.Y {
				woken = true
			}
			b.x, b.y = pos.X, pos.Y
			b.vx, b.vy = 0, 0
			b.pinned = true
		} else if b.pinned {
			b.pinned = false
			b.vx, b.vy = 0, 0
			woken = true
		}

		s.index[key] = len(s.bodies)
		s.bodies = append(s.bodies, b)
	}

	s.springs = s.springs[:0]
	for _, l := range links {
		from, okFrom := s.index[l.Source.Key()]
		to, okTo := s.index[l.Target.Key()]
		if !okFrom || !okTo || from == to {
			continue
		}
		s.springs = append(s.springs, spring{from: from, to: to})
	}

	s.place(fresh)

	if len(fresh) > 0 || woken {
		s.moving = true
	}
}

// place positions new, unpinned bodies.
func (s *Simulation) place(fresh []*body) {
	isFresh := make(map[*body]bool, len(fresh))
	for _, b := range fresh {
		isFresh[b] = !b.pinned
	}

	spread := s.params.SpringLength * math.Max(1, math.Sqrt(float64(len(s.bodies)))) / 2

	for _, b := range fresh {
		if b.pinned {
			continue
		}

		if anchor := s.placedNeighbour(b, isFresh); anchor != nil {
			angle := s.rng.Float64() * 2 * math.Pi
			dist := s.params.SpringLength * (0.5 + 0.5*s.rng.Float64())
			b.x = anchor.x + dist*math.Cos(angle)
			b.y = anchor.y + dist*math.Sin(angle)
		} else {
			angle := s.rng.Float64() * 2 * math.Pi
			dist := spread * math.Sqrt(s.rng.Float64())
			b.x = dist * math.Cos(angle)
			b.y = dist * math.Sin(angle)
		}

		isFresh[b] = false
	}
}

func (s *Simulation) placedNeighbour(b *body, unplaced map[*body]bool) *body {
	i := s.index[b.key]

	for _, sp := range s.springs {
		var other int
		switch i {
		case sp.from:
			other = sp.to
		case sp.to:
			other = sp.from
		default:
			continue
		}

		if o := s.bodies[other]; !unplaced[o] {
			return o
		}
	}

	return nil
}

// SetParams switches the force profile.
func (s *Simulation) SetParams(p Params) {
	s.params = p
}

// Params returns the active force profile.
func (s *Simulation) Params() Params {
	return s.params
}

// Heat switches to the initial profile and marks the layout un-stabilized
// until the next Cool.
func (s *Simulation) Heat() {
	if s.stabilized {
		s.reheated = true
	}
	s.stabilized = false
	s.params = InitialParams
	s.moving = true
}

// Cool returns to the soft profile when the layout had stabilized before
// the matching Heat.
func (s *Simulation) Cool() {
	if s.reheated {
		s.stabilized = true
		s.reheated = false
	}
	if s.stabilized {
		s.params = SoftParams
	}
	s.moving = true
}

// Step advances one integration step and returns the largest body speed.
func (s *Simulation) Step() float64 {
	for _, b := range s.bodies {
		b.fx, b.fy = 0, 0
	}

	s.applyRepulsion()
	s.applySprings()
	s.applyCentralGravity()

	maxV := 0.0
	for _, b := range s.bodies {
		if b.frozen() {
			b.vx, b.vy = 0, 0
			continue
		}

		ax := (b.fx - s.params.Damping*b.vx) / b.mass
		ay := (b.fy - s.params.Damping*b.vy) / b.mass
		b.vx = clampVelocity(b.vx + ax*timeStep)
		b.vy = clampVelocity(b.vy + ay*timeStep)
		b.x += b.vx * timeStep
		b.y += b.vy * timeStep

		if v := math.Hypot(b.vx, b.vy); v > maxV {
			maxV = v
		}
	}

	s.iterations++
	s.moving = maxV > minVelocity

	return maxV
}

func (s *Simulation) applyRepulsion() {
	g := s.params.GravitationalConstant
	overlap := 1 - math.Max(0, math.Min(1, s.params.AvoidOverlap))

	for i := 0; i < len(s.bodies); i++ {
		a := s.bodies[i]
		for j := i + 1; j < len(s.bodies); j++ {
			b := s.bodies[j]

			dx := b.x - a.x
			dy := b.y - a.y
			dist := math.Hypot(dx, dy)

			if dist == 0 {
				dist = 0.1 * s.rng.Float64()
				if dist == 0 {
					dist = 0.05
				}
				dx = dist
			}

			r := (a.radius + b.radius) / 2
			eff := math.Max(0.1+overlap*r, dist-r)

			f := g * a.mass * b.mass / (eff * eff * eff)
			fx, fy := dx*f, dy*f

			a.fx += fx
			a.fy += fy
			b.fx -= fx
			b.fy -= fy
		}
	}
}

func (s *Simulation) applySprings() {
	for _, sp := range s.springs {
		a, b := s.bodies[sp.from], s.bodies[sp.to]

		dx := a.x - b.x
		dy := a.y - b.y
		dist := math.Max(math.Hypot(dx, dy), 0.01)

		f := s.params.SpringConstant * (s.params.SpringLength - dist) / dist
		fx, fy := dx*f, dy*f

		a.fx += fx
		a.fy += fy
		b.fx -= fx
		b.fy -= fy
	}
}

func (s *Simulation) applyCentralGravity() {
	for _, b := range s.bodies {
		dist := math.Hypot(b.x, b.y)
		if dist == 0 {
			continue
		}

		f := s.params.CentralGravity / dist
		b.fx -= b.x * f
		b.fy -= b.y * f
	}
}

func clampVelocity(v float64) float64 {
	return math.Max(-maxVelocity, math.Min(maxVelocity, v))
}

// Stabilize steps until movement settles or maxIterations is reached, then
// switches to the soft profile. It returns the number of steps taken.
func (s *Simulation) Stabilize(maxIterations int) int {
	if maxIterations <= 0 {
		maxIterations = DefaultStabilizationIterations
	}

	steps := 0
	for steps < maxIterations {
		steps++
		if s.Step() <= minVelocity {
			break
		}
	}

	s.stabilized = true
	s.params = SoftParams

	return steps
}

// Stabilized reports whether the first stabilization pass has completed.
func (s *Simulation) Stabilized() bool { return s.stabilized }

// Moving reports whether the last step still had a body above the minimum speed.
func (s *Simulation) Moving() bool { return s.moving }

// Iterations returns the number of steps taken so far.
func (s *Simulation) Iterations() int { return s.iterations }

// Len returns the number of simulated bodies.
func (s *Simulation) Len() int { return len(s.bodies) }

// Position returns the current position of a body.
func (s *Simulation) Position(key string) (models.Position, bool) {
	i, ok := s.index[key]
	if !ok {
		return models.Position{}, false
	}

	b := s.bodies[i]

	return models.Position{X: b.x, Y: b.y}, true
}

// SetPosition moves a body and stops it.
func (s *Simulation) SetPosition(key string, pos models.Position) {
	i, ok := s.index[key]
	if !ok {
		return
	}

	b := s.bodies[i]
	b.x, b.y = pos.X, pos.Y
	b.vx, b.vy = 0, 0
	s.moving = true
}

// Hold freezes a body under the pointer.
func (s *Simulation) Hold(key string) {
	if i, ok := s.index[key]; ok {
		s.bodies[i].held = true
	}
}

// Release lets a held body move again.
func (s *Simulation) Release(key string) {
	if i, ok := s.index[key]; ok {
		b := s.bodies[i]
		b.held = false
		b.vx, b.vy = 0, 0
	}
}

// Pinned reports whether a body is pinned.
func (s *Simulation) Pinned(key string) bool {
	i, ok := s.index[key]

	return ok && s.bodies[i].pinned
}

// Radius returns the radius of a body.
func (s *Simulation) Radius(key string) float64 {
	if i, ok := s.index[key]; ok {
		return s.bodies[i].radius
	}

	return 0
}

// Bounds returns the bounding box of all bodies including their radii.
func (s *Simulation) Bounds() Bounds {
	var b Bounds
	for i, bd := range s.bodies {
		box := Bounds{MinX: bd.x - bd.radius, MinY: bd.y - bd.radius, MaxX: bd.x + bd.radius, MaxY: bd.y + bd.radius}
		if i == 0 {
			b = box
			continue
		}
		b = b.Union(box)
	}

	return b
}
