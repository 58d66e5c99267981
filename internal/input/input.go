// Package input turns raw terminal bytes into viewer control actions.
package input

import (
	"bufio"
)

// ActionType identifies a viewer control.
type ActionType int

const (
	// ActionSelect switches the broad-phase variant; Action.Index holds the
	// zero-based position in the variant list.
	ActionSelect ActionType = iota
	ActionMoreBodies
	ActionFewerBodies
	ActionGrowRadius
	ActionShrinkRadius
	ActionToggleOutline
	ActionToggleContacts
	ActionReset
)

func (t ActionType) String() string {
	switch t {
	case ActionSelect:
		return "select"
	case ActionMoreBodies:
		return "more-bodies"
	case ActionFewerBodies:
		return "fewer-bodies"
	case ActionGrowRadius:
		return "grow-radius"
	case ActionShrinkRadius:
		return "shrink-radius"
	case ActionToggleOutline:
		return "toggle-outline"
	case ActionToggleContacts:
		return "toggle-contacts"
	case ActionReset:
		return "reset"
	}
	return "unknown"
}

// Action is a single control request decoded from the input stream.
type Action struct {
	Type  ActionType
	Index int
}

// Input represents the input collected since the previous frame.
type Input struct {
	Quit    bool
	Actions []Action
	Pressed []byte
}

// Stream delivers input bytes via a channel.
type Stream struct {
	ch      chan byte
	closed  bool
	pending []byte // unfinished escape sequence from the previous read
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch: make(chan byte, 128),
	}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream (non-blocking).
// An escape sequence cut off by the end of the batch is held back and
// completed by the next call. A closed stream reports Quit.
func ReadInput(s *Stream) Input {
	buf := s.pending
	s.pending = nil

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	if !s.closed {
		buf, s.pending = splitEscape(buf)
	}

	in := Parse(buf)
	if s.closed {
		in.Quit = true
	}
	return in
}

// splitEscape cuts a trailing ESC or ESC [ off buf.
func splitEscape(buf []byte) (complete, tail []byte) {
	n := len(buf)
	switch {
	case n >= 1 && buf[n-1] == '\x1b':
		return buf[:n-1], []byte{'\x1b'}
	case n >= 2 && buf[n-2] == '\x1b' && buf[n-1] == '[':
		return buf[:n-2], []byte{'\x1b', '['}
	}
	return buf, nil
}

// Parse decodes a batch of bytes into actions, in the order they were typed.
// Arrow keys arrive as CSI sequences: up/down change the body count and
// right/left change the radius.
func Parse(buf []byte) Input {
	in := Input{Pressed: buf}

	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			switch buf[i+2] {
			case 'A':
				in.Actions = append(in.Actions, Action{Type: ActionMoreBodies})
			case 'B':
				in.Actions = append(in.Actions, Action{Type: ActionFewerBodies})
			case 'C':
				in.Actions = append(in.Actions, Action{Type: ActionGrowRadius})
			case 'D':
				in.Actions = append(in.Actions, Action{Type: ActionShrinkRadius})
			}
			i += 2
			continue
		}

		switch b {
		case 'q', 'Q', '\x03':
			in.Quit = true
		case '+', '=':
			in.Actions = append(in.Actions, Action{Type: ActionMoreBodies})
		case '-', '_':
			in.Actions = append(in.Actions, Action{Type: ActionFewerBodies})
		case ']':
			in.Actions = append(in.Actions, Action{Type: ActionGrowRadius})
		case '[':
			in.Actions = append(in.Actions, Action{Type: ActionShrinkRadius})
		case 'b', 'B':
			in.Actions = append(in.Actions, Action{Type: ActionToggleOutline})
		case 'c', 'C':
			in.Actions = append(in.Actions, Action{Type: ActionToggleContacts})
		case 'r', 'R':
			in.Actions = append(in.Actions, Action{Type: ActionReset})
		case '1', '2', '3', '4', '5', '6', '7', '8', '9':
			in.Actions = append(in.Actions, Action{Type: ActionSelect, Index: int(b - '1')})
		}
	}

	return in
}
