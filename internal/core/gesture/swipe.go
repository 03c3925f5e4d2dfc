// Package gesture holds the platform-independent state machines behind the
// list interactions: horizontal swipe to complete or delete, long-press drag
// to reorder, and vertical overscroll to create or navigate. The machines are
// pure data; front-ends feed them pointer positions and render their output.
package gesture

import "math"

// ReleaseAction is the intent a swipe resolves to when released.
type ReleaseAction int

const (
	ActionNone ReleaseAction = iota
	ActionComplete
	ActionDelete
)

func (a ReleaseAction) String() string {
	switch a {
	case ActionComplete:
		return "complete"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// SwipeState is the lifecycle of one row swipe.
type SwipeState int

const (
	SwipeIdle SwipeState = iota
	SwipeDragging
	SwipeResolving
	SwipeAnimating
)

// Overlay is the tint drawn over a row's content while swiping.
type Overlay int

const (
	OverlayNone Overlay = iota
	// OverlayComplete is the green tint shown when a release would complete.
	OverlayComplete
	// OverlayDim is the dark tint of a completed row at rest.
	OverlayDim
)

// EffectiveOffset damps a raw horizontal translation t. Leftward drags move at
// half speed, and rightward drags past iconWidth move at a third of the speed.
func EffectiveOffset(t, iconWidth float64) float64 {
	switch {
	case t < 0:
		return t / 2
	case t > iconWidth:
		return iconWidth + (t-iconWidth)/3
	default:
		return t
	}
}

// FractionOfThreshold returns min(1, |x| / iconWidth) for an effective offset
// x. It is monotonic in |x| and reaches 1 exactly at iconWidth.
func FractionOfThreshold(x, iconWidth float64) float64 {
	if iconWidth <= 0 {
		return 1
	}
	return math.Min(1, math.Abs(x)/iconWidth)
}

// ResolveAction maps an effective offset to the release action. Rightward
// drags on non-completable rows never resolve to ActionComplete.
func ResolveAction(x, iconWidth float64, completable bool) ReleaseAction {
	if FractionOfThreshold(x, iconWidth) < 1 {
		return ActionNone
	}
	if x > 0 {
		if !completable {
			return ActionNone
		}
		return ActionComplete
	}
	return ActionDelete
}

// SwipePresentation is everything a renderer needs to draw a row mid-swipe.
type SwipePresentation struct {
	Offset   float64
	Fraction float64
	Action   ReleaseAction

	CompleteIconAlpha float64
	DeleteIconAlpha   float64
	// IconShift is how far the revealed icon trails the content once the
	// drag passes the threshold.
	IconShift float64

	Overlay Overlay
	// Strike is the struck fraction of the row text, from 0 to 1.
	Strike    float64
	TextAlpha float64
}

// RestPresentation is how a row is drawn when no swipe is in progress.
func RestPresentation(completed bool) SwipePresentation {
	if completed {
		return SwipePresentation{Overlay: OverlayDim, Strike: 1, TextAlpha: 0.3}
	}
	return SwipePresentation{TextAlpha: 1}
}

// Swipe is the per-row swipe state machine:
//
//	Idle -> Dragging -> Resolving -> Animating -> Idle
//
// Dragging only changes presentation. The resolved action is handed to the
// caller from End, which is the single point where side effects may happen.
type Swipe struct {
	IconWidth float64

	state       SwipeState
	completable bool
	completed   bool
	pres        SwipePresentation
}

// NewSwipe returns an idle swipe machine using the given threshold.
func NewSwipe(iconWidth float64) *Swipe {
	return &Swipe{IconWidth: iconWidth}
}

// State returns the current state.
func (s *Swipe) State() SwipeState { return s.state }

// Active reports whether a swipe is between Begin and Finish.
func (s *Swipe) Active() bool { return s.state != SwipeIdle }

// Presentation returns the current presentation.
func (s *Swipe) Presentation() SwipePresentation { return s.pres }

// Begin starts a swipe over a row. It returns false if a swipe is already in
// progress.
func (s *Swipe) Begin(completable, completed bool) bool {
	if s.state != SwipeIdle {
		return false
	}
	s.state = SwipeDragging
	s.completable = completable
	s.completed = completed
	s.pres = RestPresentation(completed)
	return true
}

// Update feeds the raw horizontal translation since Begin and returns the new
// presentation.
func (s *Swipe) Update(translation float64) SwipePresentation {
	if s.state != SwipeDragging {
		return s.pres
	}

	if !s.completable && translation > 0 {
		s.pres = RestPresentation(s.completed)
		return s.pres
	}

	x := EffectiveOffset(translation, s.IconWidth)
	fraction := FractionOfThreshold(x, s.IconWidth)
	action := ResolveAction(x, s.IconWidth, s.completable)

	p := SwipePresentation{Offset: x, Fraction: fraction, Action: action}
	if x > 0 {
		p.CompleteIconAlpha = fraction
		if x > s.IconWidth {
			p.IconShift = x - s.IconWidth
		}
	} else {
		p.DeleteIconAlpha = fraction
		if x < -s.IconWidth {
			p.IconShift = x + s.IconWidth
		}
	}

	if !s.completed {
		p.TextAlpha = 1
		if action == ActionComplete {
			p.Overlay = OverlayComplete
		}
		if x > 0 {
			p.Strike = fraction
		}
	} else {
		p.TextAlpha = 0.3
		p.Overlay = OverlayDim
		if action == ActionComplete {
			p.TextAlpha = 1
			p.Overlay = OverlayNone
		}
		if x > 0 {
			p.Strike = 1 - fraction
		} else {
			p.Strike = 1
		}
	}

	s.pres = p
	return p
}

// End releases the swipe and returns the resolved action. The machine moves
// to Animating until Finish is called.
func (s *Swipe) End() ReleaseAction {
	if s.state != SwipeDragging {
		return ActionNone
	}
	s.state = SwipeResolving
	action := s.pres.Action
	s.state = SwipeAnimating
	return action
}

// Cancel abandons the swipe without an action, returning the row to rest.
func (s *Swipe) Cancel() {
	if s.state == SwipeIdle {
		return
	}
	s.pres = RestPresentation(s.completed)
	s.state = SwipeAnimating
}

// Finish completes the settle animation and returns the machine to Idle.
func (s *Swipe) Finish() {
	s.state = SwipeIdle
	s.pres = SwipePresentation{}
}
