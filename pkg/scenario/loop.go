package scenario

import "github.com/aretw0/vemulator/pkg/domain"

// Loop cycles through its children in order, moving on when the current child
// completes. The amount counts whole cycles; an absent amount or -1 loops
// forever.
type Loop struct {
	composite
	idx       int
	loops     int
	finite    bool
	initLoops int
}

func newLoop(b Base, children []Scenario) (*Loop, error) {
	c, err := newComposite(b, children)
	if err != nil {
		return nil, err
	}
	s := &Loop{composite: c}
	if p := b.props.Amount; p != nil && *p != -1 {
		s.finite = true
		s.loops = max(*p, 0)
		s.initLoops = s.loops
	}
	// Cycles are counted by the loop itself.
	s.Base.bounded = false
	s.bind(s)
	return s, nil
}

func (s *Loop) produce(values Values) (domain.Value, error) {
	if s.Complete() {
		return domain.None(), nil
	}
	child := s.children[s.idx]
	v := child.Generate(values)
	s.last = child
	if child.Complete() {
		child.Reset()
		s.idx++
	}
	if s.idx == len(s.children) {
		if s.finite {
			s.loops--
		}
		s.idx = 0
	}
	return v, nil
}

// Complete implements Scenario.
func (s *Loop) Complete() bool {
	return s.finite && s.loops <= 0
}

// Reset implements Scenario.
func (s *Loop) Reset() {
	s.Base.Reset()
	s.resetChildren()
	s.loops = s.initLoops
	s.idx = 0
}
