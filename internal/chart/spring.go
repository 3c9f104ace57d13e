package chart

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// settleEpsilon is how close a column must be to its target, in rows, to
// count as settled.
const settleEpsilon = 0.01

type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringField(fps int, frequency, damping float64) springField {
	return springField{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	pos := make([]float64, n)
	vel := make([]float64, n)
	copy(pos, s.pos)
	copy(vel, s.vel)
	s.pos, s.vel = pos, vel
}

func (s *springField) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = p
	s.vel[i] = v
	return p
}

func (s *springField) settled(i int, target float64) bool {
	return math.Abs(s.pos[i]-target) < settleEpsilon && math.Abs(s.vel[i]) < settleEpsilon
}

func (s *springField) snap(i int, target float64) {
	s.pos[i] = target
	s.vel[i] = 0
}
