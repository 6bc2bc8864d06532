package game

import (
	"fmt"
	"log/slog"

	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
)

// ProcessControlMessage ingests one control message from an online player.
// Msg and Pressed/Released are discrete events and always reach the event
// queue; Pressed/Released additionally update the button table when the key
// is registered. Axis and Dir are continuous state: they update their value
// table when registered and never generate events. Unregistered keys are
// dropped with a warning. Exit, Err and End are transport concerns and are
// rejected as unprocessable.
func (r *Runtime) ProcessControlMessage(account model.Account, msg protocol.ControlMessage) error {
	switch msg.Kind {
	case protocol.ControlMsg:
		r.pushEvent(account, msg)
		return nil

	case protocol.ControlPressed:
		if r.buttonRegistered(msg.Key) {
			r.setButton(account, msg.Key, true)
		} else {
			r.logger.Warn("button key not registered", slog.Int("key", int(msg.Key)))
		}
		r.pushEvent(account, msg)
		return nil

	case protocol.ControlReleased:
		if r.buttonRegistered(msg.Key) {
			r.setButton(account, msg.Key, false)
		} else {
			r.logger.Warn("button key not registered", slog.Int("key", int(msg.Key)))
		}
		r.pushEvent(account, msg)
		return nil

	case protocol.ControlAxis:
		if !r.axisRegistered(msg.Key) {
			r.logger.Warn("axis key not registered", slog.Int("key", int(msg.Key)))
			return nil
		}
		r.setAxis(account, msg.Key, msg.Value)
		return nil

	case protocol.ControlDir:
		if !r.directionRegistered(msg.Key) {
			r.logger.Warn("direction key not registered", slog.Int("key", int(msg.Key)))
			return nil
		}
		r.setDirection(account, msg.Key, Vec2{msg.X, msg.Y})
		return nil

	default:
		return fmt.Errorf("unprocessable control message: %s", msg)
	}
}

// Button reports a player's last recorded state for a button key.
func (r *Runtime) Button(account model.Account, key uint8) (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.buttons[key][account]
	return v, ok
}

// AxisValue reports a player's last recorded value for an axis key.
func (r *Runtime) AxisValue(account model.Account, key uint8) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.axes[key][account]
	return v, ok
}

// DirectionValue reports a player's last recorded value for a direction key.
func (r *Runtime) DirectionValue(account model.Account, key uint8) (Vec2, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.directions[key][account]
	return v, ok
}

func (r *Runtime) pushEvent(account model.Account, msg protocol.ControlMessage) {
	r.mu.Lock()
	r.events = append(r.events, ControlEvent{Account: account, Message: msg})
	r.mu.Unlock()
}

func (r *Runtime) buttonRegistered(key uint8) bool {
	_, ok := r.keys.Buttons[key]
	return ok
}

func (r *Runtime) axisRegistered(key uint8) bool {
	_, ok := r.keys.Axes[key]
	return ok
}

func (r *Runtime) directionRegistered(key uint8) bool {
	_, ok := r.keys.Directions[key]
	return ok
}

func (r *Runtime) setButton(account model.Account, key uint8, value bool) {
	r.mu.Lock()
	if r.buttons[key] == nil {
		r.buttons[key] = make(map[model.Account]bool)
	}
	r.buttons[key][account] = value
	r.mu.Unlock()
}

func (r *Runtime) setAxis(account model.Account, key uint8, value float64) {
	r.mu.Lock()
	if r.axes[key] == nil {
		r.axes[key] = make(map[model.Account]float64)
	}
	r.axes[key][account] = value
	r.mu.Unlock()
}

func (r *Runtime) setDirection(account model.Account, key uint8, value Vec2) {
	r.mu.Lock()
	if r.directions[key] == nil {
		r.directions[key] = make(map[model.Account]Vec2)
	}
	r.directions[key][account] = value
	r.mu.Unlock()
}
