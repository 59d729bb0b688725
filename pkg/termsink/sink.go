// Package termsink owns the terminal for the lifetime of playback: it
// manages raw mode and the alternate screen, keeps a shadow grid of what the
// terminal currently shows, and emits minimal ANSI updates to transform it
// into each new frame.
package termsink

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/user/termplay/pkg/cell"
)

var (
	// ErrSinkPoisoned is returned by Draw after an unrecoverable write
	// error. A poisoned sink refuses all further output.
	ErrSinkPoisoned = errors.New("termsink: sink poisoned by write error")

	// ErrShapeMismatch is returned when the drawn grid does not match the
	// sink's dimensions.
	ErrShapeMismatch = errors.New("termsink: grid shape mismatch")
)

const defaultBufferSize = 4 << 20

// Options configures a Sink.
type Options struct {
	// Out is the output writer. Defaults to os.Stdout.
	Out io.Writer

	// Interactive puts stdin into raw mode for the lifetime of the sink.
	// The alternate-screen, cursor and wrap sequences are written either
	// way. Leave false when Out is not a terminal, e.g. in tests.
	Interactive bool

	// BufferSize is the write buffer size. Defaults to 4 MiB so a full
	// repaint costs one syscall.
	BufferSize int
}

// Sink maintains the shadow grid and writes diff updates.
type Sink struct {
	out     *bufio.Writer
	cols    int
	rows    int
	current *cell.Grid
	scratch []byte

	interactive bool
	stdinFd     int
	savedState  *term.State
	entered     bool
	closed      bool
	poisoned    bool
}

// New creates a sink for a cols x rows cell grid, enters the alternate screen
// and, when interactive, raw mode. The caller must ensure Close runs
// on every exit path; Close is idempotent and safe under panic unwinding.
func New(cols, rows int, opts Options) (*Sink, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	size := opts.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}

	s := &Sink{
		out:         bufio.NewWriterSize(out, size),
		cols:        cols,
		rows:        rows,
		current:     cell.NewGrid(cols, rows),
		scratch:     make([]byte, 0, size),
		interactive: opts.Interactive,
		stdinFd:     int(os.Stdin.Fd()),
	}

	if err := s.enter(); err != nil {
		return nil, err
	}
	return s, nil
}

// Cols returns the grid width in cells.
func (s *Sink) Cols() int { return s.cols }

// Rows returns the grid height in cells.
func (s *Sink) Rows() int { return s.rows }

// enter switches the terminal into playback mode: raw input, alternate
// screen, hidden cursor, wrap off, cleared screen, cursor home, colors reset.
func (s *Sink) enter() error {
	if s.interactive {
		state, err := term.MakeRaw(s.stdinFd)
		if err != nil {
			return err
		}
		s.savedState = state
	}

	s.scratch = s.scratch[:0]
	s.scratch = append(s.scratch, "\x1b[?1049h\x1b[?25l\x1b[?7l\x1b[2J\x1b[H\x1b[0m"...)
	if _, err := s.out.Write(s.scratch); err != nil {
		s.restoreMode()
		return err
	}
	if err := s.out.Flush(); err != nil {
		s.restoreMode()
		return err
	}
	s.entered = true
	return nil
}

// Close restores the terminal: colors reset, cursor shown, wrap on, primary
// screen, raw mode off. It is reentrant-safe and runs best-effort even on a
// poisoned sink.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.entered {
		// Best effort: a poisoned stdout may reject this, but the mode
		// restore below must still run.
		s.out.WriteString("\x1b[0m\x1b[?25h\x1b[?7h\x1b[?1049l")
		s.out.Flush()
	}
	s.restoreMode()
	return nil
}

func (s *Sink) restoreMode() {
	if s.savedState != nil {
		term.Restore(s.stdinFd, s.savedState)
		s.savedState = nil
	}
}

// Draw computes the delta between next and the shadow grid and writes only
// the changes, flushing once. When next equals the shadow grid nothing is
// written at all.
func (s *Sink) Draw(next *cell.Grid) error {
	if s.poisoned {
		return ErrSinkPoisoned
	}
	if s.closed {
		return ErrSinkPoisoned
	}
	if next.Cols != s.cols || next.Rows != s.rows {
		return ErrShapeMismatch
	}

	buf := s.scratch[:0]

	// Rendering state is local to this call: the previous frame did not end
	// with a reset, so the first changed cell must re-emit its colors.
	var (
		fgSet, bgSet       cell.RGB
		fgKnown, bgKnown   bool
		cursorCol          = -1
		cursorRow          = -1
		wroteAny           bool
		utf8Buf            [utf8.UTFMax]byte
	)

	cur := s.current.Cells
	for i, c := range next.Cells {
		if c == cur[i] {
			continue
		}
		if !wroteAny {
			// Synchronized-update guard so the terminal presents the
			// frame atomically.
			buf = append(buf, "\x1b[?2026h"...)
			wroteAny = true
		}

		col := i % s.cols
		row := i / s.cols

		if cursorCol != col || cursorRow != row {
			buf = appendCursorMove(buf, col, row)
		}

		if !fgKnown || fgSet != c.FG {
			buf = appendColor(buf, "\x1b[38;2;", c.FG)
			fgSet = c.FG
			fgKnown = true
		}
		if !bgKnown || bgSet != c.BG {
			buf = appendColor(buf, "\x1b[48;2;", c.BG)
			bgSet = c.BG
			bgKnown = true
		}

		n := utf8.EncodeRune(utf8Buf[:], c.Glyph)
		buf = append(buf, utf8Buf[:n]...)

		// The terminal advances the cursor after the glyph, so a
		// contiguous run needs no further cursor moves.
		cursorCol = col + 1
		cursorRow = row

		cur[i] = c
	}

	if !wroteAny {
		return nil
	}
	buf = append(buf, "\x1b[?2026l"...)
	s.scratch = buf

	if _, err := s.out.Write(buf); err != nil {
		s.poisoned = true
		return errors.Join(ErrSinkPoisoned, err)
	}
	if err := s.out.Flush(); err != nil {
		s.poisoned = true
		return errors.Join(ErrSinkPoisoned, err)
	}
	return nil
}

// Poisoned reports whether a previous Draw failed.
func (s *Sink) Poisoned() bool { return s.poisoned }

// appendCursorMove appends CSI row+1;col+1 H.
func appendCursorMove(buf []byte, col, row int) []byte {
	buf = append(buf, "\x1b["...)
	buf = strconv.AppendUint(buf, uint64(row+1), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(col+1), 10)
	return append(buf, 'H')
}

// appendColor appends an SGR truecolor sequence with the given prefix.
func appendColor(buf []byte, prefix string, c cell.RGB) []byte {
	buf = append(buf, prefix...)
	buf = strconv.AppendUint(buf, uint64(c.R), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(c.G), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(c.B), 10)
	return append(buf, 'm')
}
