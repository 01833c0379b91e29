// Package input turns raw terminal bytes into key presses and pointer events.
// Pointer events come from SGR mouse reporting (ESC [ < b ; x ; y M/m) and
// focus reporting (ESC [ O), which the caller enables with EnableMouse.
package input

import (
	"bufio"
	"io"
	"strconv"
	"time"
)

// escapeTimeout is how long a partial escape sequence waits for the rest of
// its bytes before being read as plain keys.
const escapeTimeout = 25 * time.Millisecond

// Terminal modes: any-motion tracking, SGR coordinates, focus events.
const (
	enableMouse  = "\x1b[?1003h\x1b[?1006h\x1b[?1004h"
	disableMouse = "\x1b[?1004l\x1b[?1006l\x1b[?1003l"
)

// EnableMouse switches on pointer and focus reporting.
func EnableMouse(w io.Writer) {
	io.WriteString(w, enableMouse)
}

// DisableMouse restores the terminal's pointer reporting.
func DisableMouse(w io.Writer) {
	io.WriteString(w, disableMouse)
}

// PointerKind is the type of a pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	}
	return "unknown"
}

// Pointer is a pointer event in 1-based terminal cell coordinates.
// Leave events carry no position.
type Pointer struct {
	Kind PointerKind
	Col  int
	Row  int
}

// Input is everything read since the previous call.
type Input struct {
	Quit      bool
	Start     bool // Space or Enter
	Retry     bool // r: restart with the same pose
	Next      bool // t: reroll and restart
	Undo      bool // Ctrl+Z
	Backspace bool
	Escape    bool
	Digits    []byte    // Digit keys in the order typed
	Pointer   []Pointer // Pointer events in the order received
	Pressed   []byte    // Raw bytes, used for activity tracking
}

// Stream delivers input bytes via a channel and keeps partial escape
// sequences between reads.
type Stream struct {
	ch           chan byte
	pending      []byte
	pendingSince time.Time
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch: make(chan byte, 256),
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
// An escape sequence cut off at the end of the available bytes is kept for
// the next call; once it has waited escapeTimeout without new bytes it is
// read as plain keys.
func ReadInput(s *Stream) Input {
	var buf []byte
	closed := false

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	now := time.Now()
	final := closed || (len(buf) == 0 && now.Sub(s.pendingSince) >= escapeTimeout)
	if len(s.pending) == 0 {
		s.pendingSince = now
	}
	buf = append(s.pending, buf...)
	in, rest := Parse(buf, final)
	s.pending = rest
	if closed {
		in.Quit = true
	}
	return in
}

// Parse decodes buf. Unless final is set, an incomplete escape sequence at
// the end is returned as rest instead of being decoded.
func Parse(buf []byte, final bool) (in Input, rest []byte) {
	for i := 0; i < len(buf); {
		if buf[i] == '\x1b' {
			n, complete := parseEscape(buf[i:], &in)
			if !complete && !final {
				in.Pressed = append(in.Pressed, buf[:i]...)
				return in, append([]byte(nil), buf[i:]...)
			}
			if n > 0 {
				i += n
				continue
			}
		}
		applyByte(&in, buf[i])
		i++
	}
	in.Pressed = buf
	return in, nil
}

// parseEscape decodes the escape sequence at the start of buf. It returns the
// number of bytes consumed, or 0 when buf does not start a known sequence
// and the ESC byte should be read as a key. complete is false when buf ends
// before the sequence does.
func parseEscape(buf []byte, in *Input) (n int, complete bool) {
	if len(buf) < 2 {
		return 0, false
	}
	if buf[1] != '[' {
		return 0, true
	}
	if len(buf) < 3 {
		return 0, false
	}

	switch buf[2] {
	case 'A', 'B', 'C', 'D': // Arrows
		return 3, true
	case 'I': // Focus in
		return 3, true
	case 'O': // Focus out
		in.Pointer = append(in.Pointer, Pointer{Kind: PointerLeave})
		return 3, true
	case '<':
		return parseSGRMouse(buf, in)
	}
	return 0, true
}

// parseSGRMouse decodes ESC [ < b ; x ; y M|m. Only the primary button and
// plain motion are reported.
func parseSGRMouse(buf []byte, in *Input) (n int, complete bool) {
	end := -1
	for j := 3; j < len(buf); j++ {
		c := buf[j]
		if c == 'M' || c == 'm' {
			end = j
			break
		}
		if (c < '0' || c > '9') && c != ';' {
			return 0, true
		}
	}
	if end < 0 {
		return len(buf), false
	}

	fields := splitFields(buf[3:end])
	if len(fields) != 3 {
		return end + 1, true
	}
	code, err1 := strconv.Atoi(fields[0])
	col, err2 := strconv.Atoi(fields[1])
	row, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return end + 1, true
	}

	const (
		buttonMask = 0b11
		motionBit  = 32
		wheelBit   = 64
	)
	if code&wheelBit != 0 {
		return end + 1, true
	}
	button := code & buttonMask
	p := Pointer{Col: col, Row: row}
	switch {
	case buf[end] == 'm':
		if button != 0 {
			return end + 1, true
		}
		p.Kind = PointerUp
	case code&motionBit != 0:
		switch button {
		case 0:
			p.Kind = PointerMove
		case 3:
			// Hover: the release was lost, e.g. outside the window.
			p.Kind = PointerUp
		default:
			return end + 1, true
		}
	default:
		if button != 0 {
			return end + 1, true
		}
		p.Kind = PointerDown
	}
	in.Pointer = append(in.Pointer, p)
	return end + 1, true
}

func splitFields(b []byte) []string {
	var fields []string
	start := 0
	for i, c := range b {
		if c == ';' {
			fields = append(fields, string(b[start:i]))
			start = i + 1
		}
	}
	return append(fields, string(b[start:]))
}

// applyByte updates in for a single key byte.
func applyByte(in *Input, b byte) {
	switch b {
	case 'q', 'Q', '\x03':
		in.Quit = true
	case ' ', '\n', '\r':
		in.Start = true
	case 'r', 'R':
		in.Retry = true
	case 't', 'T':
		in.Next = true
	case '\x1a':
		in.Undo = true
	case '\b', '\x7f':
		in.Backspace = true
	case '\x1b':
		in.Escape = true
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		in.Digits = append(in.Digits, b)
	}
}
