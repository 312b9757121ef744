package application

// Control tracks the enabled/busy state of one triggering control. A busy
// control has exactly one backend round trip outstanding.
type Control struct {
	idleLabel string
	busyLabel string
	busy      bool
}

// ControlState is the render-ready state of a Control.
type ControlState struct {
	Label    string
	Disabled bool
	Busy     bool
}

func newControl(idleLabel, busyLabel string) Control {
	return Control{idleLabel: idleLabel, busyLabel: busyLabel}
}

func (c *Control) begin() error {
	if c.busy {
		return ErrControlBusy
	}
	c.busy = true
	return nil
}

func (c *Control) end() {
	c.busy = false
}

// State returns the label and disabled flag to render.
func (c Control) State() ControlState {
	if c.busy {
		return ControlState{Label: c.busyLabel, Disabled: true, Busy: true}
	}
	return ControlState{Label: c.idleLabel}
}
