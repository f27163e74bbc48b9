package annotate

import (
	"context"
	"fmt"

	"github.com/vbonduro/explainui/internal/domain"
	"github.com/vbonduro/explainui/internal/exchange"
)

type State int

const (
	Idle State = iota
	Panning
	DraggingPin
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingPin:
		return "dragging-pin"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type EventKind string

const (
	EventPointerDown  EventKind = "pointerdown"
	EventPointerMove  EventKind = "pointermove"
	EventPointerUp    EventKind = "pointerup"
	EventPointerLeave EventKind = "pointerleave"
	EventClick        EventKind = "click"
	EventWheel        EventKind = "wheel"
	EventKeyDown      EventKind = "keydown"
	EventKeyUp        EventKind = "keyup"
)

type MouseButton int

const (
	ButtonLeft   MouseButton = 0
	ButtonMiddle MouseButton = 1
	ButtonRight  MouseButton = 2
)

// Event is one pointer or keyboard input. Container is nil when the canvas
// is not mounted; PinID names the pin under the pointer, if any.
type Event struct {
	Kind      EventKind   `json:"type"`
	Button    MouseButton `json:"button"`
	ClientX   float64     `json:"clientX"`
	ClientY   float64     `json:"clientY"`
	Container *Rect       `json:"container,omitempty"`
	PinID     string      `json:"pinId,omitempty"`
	DeltaY    float64     `json:"deltaY,omitempty"`
	Code      string      `json:"code,omitempty"`
	Ctrl      bool        `json:"ctrl,omitempty"`
	Meta      bool        `json:"meta,omitempty"`
}

type Effect string

const (
	EffectPinCreated      Effect = "pin-created"
	EffectPinMoved        Effect = "pin-moved"
	EffectPinDeleted      Effect = "pin-deleted"
	EffectPinSelected     Effect = "pin-selected"
	EffectPanned          Effect = "panned"
	EffectZoomed          Effect = "zoomed"
	EffectExportRequested Effect = "export-requested"
)

// Outcome reports what an event did. Export is set only alongside
// EffectExportRequested.
type Outcome struct {
	State   State           `json:"state"`
	Effects []Effect        `json:"effects"`
	PinID   string          `json:"pinId,omitempty"`
	Export  *exchange.Model `json:"export,omitempty"`
}

func (o *Outcome) add(eff Effect, pinID string) {
	o.Effects = append(o.Effects, eff)
	if pinID != "" {
		o.PinID = pinID
	}
}

// Has reports whether the outcome contains eff.
func (o Outcome) Has(eff Effect) bool {
	for _, e := range o.Effects {
		if e == eff {
			return true
		}
	}
	return false
}

// machine holds the gesture state. Pan is computed from the values recorded
// at pan start, never accumulated per move.
type machine struct {
	state         State
	spaceHeld     bool
	suppressClick bool

	pointerStart domain.Point
	panStart     domain.Point

	dragPinID  string
	dragOffset domain.Point
}

func (m *machine) reset() {
	m.state = Idle
	m.suppressClick = false
	m.dragPinID = ""
	m.dragOffset = domain.Point{}
}

type transition func(e *Editor, ev Event, out *Outcome)

// transitions is keyed by state then event kind. Pairs missing from the
// table are ignored, which is how a click during a pan or drag is dropped.
var transitions = map[State]map[EventKind]transition{
	Idle: {
		EventPointerDown: (*Editor).pressIdle,
		EventClick:       (*Editor).clickIdle,
	},
	Panning: {
		EventPointerMove:  (*Editor).movePanning,
		EventPointerUp:    (*Editor).endGesture,
		EventPointerLeave: (*Editor).endGesture,
	},
	DraggingPin: {
		EventPointerMove:  (*Editor).moveDragging,
		EventPointerUp:    (*Editor).endGesture,
		EventPointerLeave: (*Editor).endGesture,
	},
}

// stateless handles inputs that apply whatever the gesture state.
var stateless = map[EventKind]transition{
	EventWheel:   (*Editor).wheel,
	EventKeyDown: (*Editor).keyDown,
	EventKeyUp:   (*Editor).keyUp,
}

// Dispatch applies one event and auto-saves any resulting change.
func (e *Editor) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := Outcome{Effects: []Effect{}}
	if fn, ok := stateless[ev.Kind]; ok {
		fn(e, ev, &out)
	} else if fn, ok := transitions[e.machine.state][ev.Kind]; ok {
		fn(e, ev, &out)
	}
	out.State = e.machine.state

	return out, e.commit(ctx)
}

func (e *Editor) resolve(ev Event) (domain.Point, bool) {
	return ViewportToImagePoint(ev.ClientX, ev.ClientY, ev.Container, e.view(), e.session.NaturalSize)
}

func (e *Editor) pressIdle(ev Event, out *Outcome) {
	e.machine.suppressClick = false
	if !e.session.HasImage() {
		return
	}

	if ev.PinID != "" && ev.Button == ButtonLeft {
		e.startDrag(ev, out)
		return
	}

	mouseButtonPan := ev.Button == ButtonMiddle || ev.Button == ButtonRight
	spacePan := ev.Button == ButtonLeft && e.machine.spaceHeld
	if !mouseButtonPan && !spacePan {
		return
	}

	e.machine.state = Panning
	e.machine.pointerStart = domain.Point{X: ev.ClientX, Y: ev.ClientY}
	e.machine.panStart = e.session.Pan
}

func (e *Editor) startDrag(ev Event, out *Outcome) {
	p, ok := e.resolve(ev)
	if !ok {
		return
	}
	i := e.session.PinIndex(ev.PinID)
	if i < 0 {
		return
	}
	pin := e.session.Pins[i]

	e.selectPin(pin.ID)
	out.add(EffectPinSelected, pin.ID)

	e.machine.state = DraggingPin
	e.machine.dragPinID = pin.ID
	e.machine.dragOffset = domain.Point{X: p.X - pin.X, Y: p.Y - pin.Y}
}

func (e *Editor) clickIdle(ev Event, out *Outcome) {
	if e.machine.suppressClick {
		e.machine.suppressClick = false
		return
	}
	if !e.session.HasImage() || ev.Button != ButtonLeft {
		return
	}
	if ev.PinID != "" {
		if e.session.PinIndex(ev.PinID) >= 0 {
			e.selectPin(ev.PinID)
			out.add(EffectPinSelected, ev.PinID)
		}
		return
	}

	p, ok := e.resolve(ev)
	if !ok {
		return
	}
	pin := e.createPin(p)
	out.add(EffectPinCreated, pin.ID)
	out.add(EffectPinSelected, pin.ID)
}

func (e *Editor) movePanning(ev Event, out *Outcome) {
	pan := domain.Point{
		X: e.machine.panStart.X + (ev.ClientX - e.machine.pointerStart.X),
		Y: e.machine.panStart.Y + (ev.ClientY - e.machine.pointerStart.Y),
	}
	if pan == e.session.Pan {
		return
	}
	e.setView(View{Zoom: e.session.Zoom, Pan: pan})
	out.add(EffectPanned, "")
}

func (e *Editor) moveDragging(ev Event, out *Outcome) {
	p, ok := e.resolve(ev)
	if !ok {
		return
	}
	target := domain.Point{X: p.X - e.machine.dragOffset.X, Y: p.Y - e.machine.dragOffset.Y}
	if e.movePin(e.machine.dragPinID, target) {
		out.add(EffectPinMoved, e.machine.dragPinID)
	}
}

func (e *Editor) endGesture(_ Event, _ *Outcome) {
	e.machine.reset()
	e.machine.suppressClick = true
}

func (e *Editor) wheel(ev Event, out *Outcome) {
	if !e.session.HasImage() || ev.Container == nil {
		return
	}
	cursor := domain.Point{X: ev.ClientX - ev.Container.Left, Y: ev.ClientY - ev.Container.Top}
	next := ZoomAt(e.view(), cursor, ev.DeltaY)
	if next == e.view() {
		return
	}
	e.setView(next)
	out.add(EffectZoomed, "")
}

func (e *Editor) keyDown(ev Event, out *Outcome) {
	switch {
	case ev.Code == "Space":
		e.machine.spaceHeld = true
	case ev.Code == "Delete" || ev.Code == "Backspace":
		id := e.session.SelectedPinID
		if id == "" {
			return
		}
		if e.deletePin(id) {
			out.add(EffectPinDeleted, id)
		} else {
			// stale selection
			e.selectPin("")
		}
		if e.machine.state == DraggingPin && e.machine.dragPinID == id {
			e.machine.reset()
		}
	case ev.Code == "KeyE" && (ev.Ctrl || ev.Meta):
		out.Export = e.exportLocked()
		out.add(EffectExportRequested, "")
	}
}

func (e *Editor) keyUp(ev Event, _ *Outcome) {
	if ev.Code == "Space" {
		e.machine.spaceHeld = false
	}
}
