package gesture

import "math"

// PlaceholderKind is what the head placeholder row shows while overscrolled.
type PlaceholderKind int

const (
	PlaceholderHidden PlaceholderKind = iota
	PlaceholderPullToCreate
	PlaceholderReleaseToCreate
	PlaceholderSwitchToParent
)

// Label is the placeholder text.
func (k PlaceholderKind) Label() string {
	switch k {
	case PlaceholderPullToCreate:
		return "Pull to Create Item"
	case PlaceholderReleaseToCreate:
		return "Release to Create Item"
	case PlaceholderSwitchToParent:
		return "Switch to Lists"
	default:
		return ""
	}
}

// Placeholder is the presentation of the head placeholder row.
type Placeholder struct {
	Kind PlaceholderKind
	// Angle is the rotation about the horizontal axis, from pi/2 (edge on)
	// at zero pull down to 0 (flat) at one row height.
	Angle float64
	Alpha float64
	// FooterArmed is set while a pull up would fire on release.
	FooterArmed bool
}

// PullIntent is what releasing an overscroll asks the screen to do.
type PullIntent int

const (
	IntentNone PullIntent = iota
	IntentCreate
	IntentNavigateUp
	IntentNavigateDown
	IntentDeleteCompleted
)

func (i PullIntent) String() string {
	switch i {
	case IntentCreate:
		return "create"
	case IntentNavigateUp:
		return "navigate-up"
	case IntentNavigateDown:
		return "navigate-down"
	case IntentDeleteCompleted:
		return "delete-completed"
	default:
		return "none"
	}
}

// Pull is the pull-to-create and release-to-navigate state machine.
type Pull struct {
	RowHeight float64
	// HasParent enables navigating up past two row heights.
	HasParent bool
	// HasChild makes a pull up navigate down instead of sweeping completed
	// items.
	HasChild bool

	pulledDown float64
	pulledUp   float64
	topArmed   bool
	bottomArm  bool
}

// PlaceholderAngle maps a pull distance to the placeholder rotation.
func PlaceholderAngle(pulledDown, rowHeight float64) float64 {
	if rowHeight <= 0 || pulledDown >= rowHeight {
		return 0
	}
	return math.Pi/2 - 2*math.Atan(pulledDown/rowHeight)
}

// Scroll records the overscroll distances. Navigation is only armed or
// disarmed while dragging so momentum scroll-back cannot trigger it.
func (p *Pull) Scroll(pulledDown, pulledUp float64, dragging bool) Placeholder {
	p.pulledDown = math.Max(0, pulledDown)
	p.pulledUp = math.Max(0, pulledUp)
	rh := p.RowHeight

	if dragging {
		p.topArmed = p.HasParent && p.pulledDown > 2*rh
		p.bottomArm = p.pulledUp > rh
	}

	ph := Placeholder{FooterArmed: p.bottomArm}
	switch {
	case p.pulledDown <= 0:
		ph.Kind = PlaceholderHidden
	case p.pulledDown <= rh:
		ph.Kind = PlaceholderPullToCreate
		ph.Angle = PlaceholderAngle(p.pulledDown, rh)
		ph.Alpha = math.Min(1, p.pulledDown/rh)
	case p.pulledDown <= 2*rh || !p.topArmed:
		ph.Kind = PlaceholderReleaseToCreate
		ph.Alpha = 1
	default:
		ph.Kind = PlaceholderSwitchToParent
		ph.Alpha = 1
	}
	return ph
}

// EndDragging resolves the release and resets the machine.
func (p *Pull) EndDragging() PullIntent {
	defer p.reset()

	rh := p.RowHeight
	if p.pulledUp > rh {
		if p.HasChild {
			return IntentNavigateDown
		}
		return IntentDeleteCompleted
	}
	if p.pulledDown <= rh {
		return IntentNone
	}
	if p.pulledDown > 2*rh && p.topArmed {
		return IntentNavigateUp
	}
	return IntentCreate
}

// reset drops any recorded overscroll.
func (p *Pull) reset() {
	p.pulledDown = 0
	p.pulledUp = 0
	p.topArmed = false
	p.bottomArm = false
}
