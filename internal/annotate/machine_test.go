package annotate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/explainui/internal/domain"
)

func (h *harness) send(t *testing.T, ev Event) Outcome {
	t.Helper()
	if ev.Container == nil && ev.Kind != EventKeyDown && ev.Kind != EventKeyUp {
		ev.Container = &Rect{}
	}
	out, err := h.editor.Dispatch(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, h.editor.State(), out.State)
	return out
}

func TestMiddleButtonPan(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)

	out := h.send(t, Event{Kind: EventPointerDown, Button: ButtonMiddle, ClientX: 100, ClientY: 100})
	assert.Equal(t, Panning, out.State)

	h.send(t, Event{Kind: EventPointerMove, ClientX: 130, ClientY: 90})
	out = h.send(t, Event{Kind: EventPointerMove, ClientX: 150, ClientY: 80})
	assert.True(t, out.Has(EffectPanned))
	assert.Equal(t, domain.Point{X: 50, Y: -20}, h.editor.Snapshot().Pan)

	out = h.send(t, Event{Kind: EventPointerUp, Button: ButtonMiddle, ClientX: 150, ClientY: 80})
	assert.Equal(t, Idle, out.State)

	// the click that follows the pan never creates a pin
	out = h.send(t, Event{Kind: EventClick, Button: ButtonLeft, ClientX: 150, ClientY: 80})
	assert.Empty(t, out.Effects)
	assert.Empty(t, h.editor.Snapshot().Pins)
}

func TestRightButtonPan(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)

	out := h.send(t, Event{Kind: EventPointerDown, Button: ButtonRight, ClientX: 0, ClientY: 0})
	assert.Equal(t, Panning, out.State)
	out = h.send(t, Event{Kind: EventPointerLeave})
	assert.Equal(t, Idle, out.State)
}

func TestSpaceLeftButtonPan(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)

	out := h.send(t, Event{Kind: EventPointerDown, Button: ButtonLeft, ClientX: 10, ClientY: 10})
	assert.Equal(t, Idle, out.State)

	h.send(t, Event{Kind: EventKeyDown, Code: "Space"})
	out = h.send(t, Event{Kind: EventPointerDown, Button: ButtonLeft, ClientX: 10, ClientY: 10})
	assert.Equal(t, Panning, out.State)
	h.send(t, Event{Kind: EventPointerUp})

	h.send(t, Event{Kind: EventKeyUp, Code: "Space"})
	out = h.send(t, Event{Kind: EventPointerDown, Button: ButtonLeft, ClientX: 10, ClientY: 10})
	assert.Equal(t, Idle, out.State)
}

func TestPanWithoutImageIgnored(t *testing.T) {
	h := newHarness(t, nil)
	out := h.send(t, Event{Kind: EventPointerDown, Button: ButtonMiddle})
	assert.Equal(t, Idle, out.State)
}

func TestDragPin(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)
	created := h.click(t, 100, 100)
	h.click(t, 300, 300)

	// grab the first pin slightly off centre
	out := h.send(t, Event{Kind: EventPointerDown, Button: ButtonLeft, ClientX: 104, ClientY: 98, PinID: created.PinID})
	assert.Equal(t, DraggingPin, out.State)
	assert.True(t, out.Has(EffectPinSelected))
	assert.Equal(t, created.PinID, h.editor.Snapshot().SelectedPinID)

	out = h.send(t, Event{Kind: EventPointerMove, ClientX: 204, ClientY: 148})
	assert.True(t, out.Has(EffectPinMoved))

	s := h.editor.Snapshot()
	pin := s.Pins[s.PinIndex(created.PinID)]
	assert.Equal(t, 200.0, pin.X)
	assert.Equal(t, 150.0, pin.Y)

	out = h.send(t, Event{Kind: EventPointerUp, ClientX: 204, ClientY: 148})
	assert.Equal(t, Idle, out.State)

	out = h.send(t, Event{Kind: EventClick, Button: ButtonLeft, ClientX: 204, ClientY: 148, PinID: created.PinID})
	assert.Empty(t, out.Effects)
	assert.Len(t, h.editor.Snapshot().Pins, 2)
}

func TestDragClampsToImage(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)
	created := h.click(t, 10, 10)

	h.send(t, Event{Kind: EventPointerDown, Button: ButtonLeft, ClientX: 10, ClientY: 10, PinID: created.PinID})
	h.send(t, Event{Kind: EventPointerMove, ClientX: -500, ClientY: 5000})
	h.send(t, Event{Kind: EventPointerLeave})

	pin := h.editor.Snapshot().Pins[0]
	assert.Equal(t, 0.0, pin.X)
	assert.Equal(t, 600.0, pin.Y)
}

func TestSpaceHeldPressOnPinDrags(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)
	created := h.click(t, 10, 10)

	h.send(t, Event{Kind: EventKeyDown, Code: "Space"})
	out := h.send(t, Event{Kind: EventPointerDown, Button: ButtonLeft, ClientX: 10, ClientY: 10, PinID: created.PinID})
	assert.Equal(t, DraggingPin, out.State)
}

func TestClickOnPinSelects(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)
	first := h.click(t, 10, 10)
	h.click(t, 20, 20)

	out := h.send(t, Event{Kind: EventClick, Button: ButtonLeft, ClientX: 10, ClientY: 10, PinID: first.PinID})
	assert.Equal(t, []Effect{EffectPinSelected}, out.Effects)
	assert.Equal(t, first.PinID, h.editor.Snapshot().SelectedPinID)
	assert.Len(t, h.editor.Snapshot().Pins, 2)
}

func TestNonLeftClickNeverCreates(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)

	for _, b := range []MouseButton{ButtonMiddle, ButtonRight} {
		out := h.send(t, Event{Kind: EventClick, Button: b, ClientX: 10, ClientY: 10})
		assert.Empty(t, out.Effects)
	}
	assert.Empty(t, h.editor.Snapshot().Pins)
}

func TestClickWithoutContainerIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)

	out, err := h.editor.Dispatch(context.Background(), Event{Kind: EventClick, Button: ButtonLeft, ClientX: 10, ClientY: 10})
	require.NoError(t, err)
	assert.Empty(t, out.Effects)
}

func TestWheelZoom(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)

	out := h.send(t, Event{Kind: EventWheel, DeltaY: -3, ClientX: 110, ClientY: 120, Container: &Rect{Left: 10, Top: 20}})
	assert.True(t, out.Has(EffectZoomed))

	s := h.editor.Snapshot()
	assert.InDelta(t, 1.1, s.Zoom, 1e-9)
	assert.InDelta(t, -10, s.Pan.X, 1e-9)
	assert.InDelta(t, -10, s.Pan.Y, 1e-9)

	out, err := h.editor.Dispatch(context.Background(), Event{Kind: EventWheel, DeltaY: -3})
	require.NoError(t, err)
	assert.Empty(t, out.Effects)
}

func TestWheelDuringPan(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)

	h.send(t, Event{Kind: EventPointerDown, Button: ButtonMiddle})
	out := h.send(t, Event{Kind: EventWheel, DeltaY: 1, ClientX: 10, ClientY: 10})
	assert.True(t, out.Has(EffectZoomed))
	assert.Equal(t, Panning, out.State)
}

func TestDeleteKeyRemovesSelection(t *testing.T) {
	for _, code := range []string{"Delete", "Backspace"} {
		t.Run(code, func(t *testing.T) {
			h := newHarness(t, nil)
			h.loadImage(t, "shot.png", size800x600)
			h.click(t, 10, 10)
			created := h.click(t, 20, 20)

			out := h.send(t, Event{Kind: EventKeyDown, Code: code})
			assert.True(t, out.Has(EffectPinDeleted))
			assert.Equal(t, created.PinID, out.PinID)

			s := h.editor.Snapshot()
			assert.Len(t, s.Pins, 1)
			assert.Empty(t, s.SelectedPinID)

			out = h.send(t, Event{Kind: EventKeyDown, Code: code})
			assert.Empty(t, out.Effects)
			assert.Len(t, h.editor.Snapshot().Pins, 1)
		})
	}
}

func TestDeleteDuringDragEndsDrag(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)
	created := h.click(t, 10, 10)

	h.send(t, Event{Kind: EventPointerDown, Button: ButtonLeft, ClientX: 10, ClientY: 10, PinID: created.PinID})
	out := h.send(t, Event{Kind: EventKeyDown, Code: "Delete"})
	assert.Equal(t, Idle, out.State)
}

func TestExportShortcut(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)
	h.click(t, 10, 10)

	out := h.send(t, Event{Kind: EventKeyDown, Code: "KeyE", Meta: true})
	assert.True(t, out.Has(EffectExportRequested))
	require.NotNil(t, out.Export)
	assert.Len(t, out.Export.Pins, 1)
	assert.Equal(t, "2025-03-01T12:00:00.000Z", out.Export.ExportedAt)

	out = h.send(t, Event{Kind: EventKeyDown, Code: "KeyE"})
	assert.Nil(t, out.Export)
}

func TestLoadImageResetsGesture(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)
	h.send(t, Event{Kind: EventPointerDown, Button: ButtonMiddle})
	require.Equal(t, Panning, h.editor.State())

	h.loadImage(t, "next.png", size800x600)
	assert.Equal(t, Idle, h.editor.State())
}

// Whatever the input sequence, the machine is in exactly one known state and
// a drag always refers to an existing pin.
func TestStateExclusivity(t *testing.T) {
	h := newHarness(t, nil)
	h.loadImage(t, "shot.png", size800x600)
	created := h.click(t, 50, 50)

	seq := []Event{
		{Kind: EventPointerDown, Button: ButtonMiddle},
		{Kind: EventPointerDown, Button: ButtonLeft, PinID: created.PinID},
		{Kind: EventPointerMove, ClientX: 70, ClientY: 70},
		{Kind: EventPointerUp},
		{Kind: EventPointerDown, Button: ButtonLeft, ClientX: 70, ClientY: 70, PinID: created.PinID},
		{Kind: EventPointerDown, Button: ButtonMiddle},
		{Kind: EventKeyDown, Code: "Space"},
		{Kind: EventPointerMove, ClientX: 90, ClientY: 90},
		{Kind: EventKeyDown, Code: "Delete"},
		{Kind: EventPointerMove, ClientX: 95, ClientY: 95},
		{Kind: EventPointerLeave},
		{Kind: EventPointerDown, Button: ButtonLeft},
		{Kind: EventClick, Button: ButtonLeft},
	}
	for _, ev := range seq {
		out := h.send(t, ev)
		assert.Contains(t, []State{Idle, Panning, DraggingPin}, out.State)
		if out.State == DraggingPin {
			assert.GreaterOrEqual(t, h.editor.Snapshot().PinIndex(h.editor.machine.dragPinID), 0)
		}
	}
}

func TestStateText(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Panning: "panning", DraggingPin: "dragging-pin"} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, want, string(text))
	}
}
