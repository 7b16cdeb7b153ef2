// Package console implements the operator command interface: single-character
// commands read from a byte stream (stdin, or a serial port via Serial). The
// console never touches pipeline internals; it parses input into Command
// values that the decision task applies between pipeline iterations.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tarm/serial"
)

// Kind identifies a console command.
type Kind int

// Console commands. The letters mirror the help text in printHelp.
const (
	ToggleIMUDebug Kind = iota
	ToggleFingerDebug
	ToggleNetDebug
	ToggleShakeDebug
	ToggleInferenceDebug
	ToggleSpeech
	InitInference
	Status
	ClearCache
	CalibrateFlex
	CalibrateIMU
	ShowNormalized
	SetPerson
	SetLabel
	StartLogging
	StopLogging
	Quiet
	Verbose
	ProfilerStart
	ProfilerStop
	ProfilerReport
	PlayChime
)

// Command is one parsed operator command. Arg carries the entered text for
// SetPerson and SetLabel.
type Command struct {
	Kind Kind
	Arg  string
}

// inputMode tracks multi-character entry after 'p' or 'l'.
type inputMode int

const (
	inputNone inputMode = iota
	inputPerson
	inputLabel
)

// Console parses operator input and delivers commands on a channel.
type Console struct {
	r   io.Reader
	w   io.Writer
	out chan Command
	log *slog.Logger
}

// New creates a Console reading commands from r and echoing prompts to w.
func New(r io.Reader, w io.Writer) *Console {
	return &Console{
		r:   r,
		w:   w,
		out: make(chan Command, 8),
		log: slog.With("task", "console"),
	}
}

// Commands returns the channel of parsed commands. The decision task polls
// it without blocking.
func (c *Console) Commands() <-chan Command {
	return c.out
}

// Run parses input until the reader ends. It is meant to run on its own
// goroutine; a closed or failed reader ends it quietly.
func (c *Console) Run() {
	br := bufio.NewReader(c.r)
	mode := inputNone
	var pending []byte

	for {
		b, err := br.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Warn("console input ended", "error", err)
			}
			return
		}

		if b == '\r' || b == '\n' {
			if mode != inputNone {
				c.finishInput(mode, string(pending))
				mode = inputNone
				pending = pending[:0]
			}
			continue
		}

		if mode != inputNone {
			if len(pending) < 31 {
				pending = append(pending, b)
			}
			continue
		}

		switch b {
		case 'i', 'I':
			c.emit(Command{Kind: ToggleIMUDebug})
		case 'f', 'F':
			c.emit(Command{Kind: ToggleFingerDebug})
		case 'w', 'W':
			c.emit(Command{Kind: ToggleNetDebug})
		case 's', 'S':
			c.emit(Command{Kind: ToggleShakeDebug})
		case 'm', 'M':
			c.emit(Command{Kind: ToggleInferenceDebug})
		case 'x', 'X':
			c.emit(Command{Kind: ToggleSpeech})
		case 'e', 'E':
			c.emit(Command{Kind: InitInference})
		case 'a', 'A':
			c.emit(Command{Kind: Status})
		case 'd', 'D':
			c.emit(Command{Kind: ClearCache})
		case 'r', 'R':
			c.emit(Command{Kind: CalibrateFlex})
		case 'u', 'U':
			c.emit(Command{Kind: CalibrateIMU})
		case 'n', 'N':
			c.emit(Command{Kind: ShowNormalized})
		case 'p', 'P':
			mode = inputPerson
			fmt.Fprintln(c.w, "enter person id (e.g. P1, P2) and press ENTER:")
		case 'l', 'L':
			mode = inputLabel
			fmt.Fprintln(c.w, "enter label (A-Z, NEUTRAL, SPACE, ...) and press ENTER:")
		case 'g', 'G':
			c.emit(Command{Kind: StartLogging})
		case 't', 'T':
			c.emit(Command{Kind: StopLogging})
		case 'q', 'Q':
			c.emit(Command{Kind: Quiet})
		case 'v', 'V':
			c.emit(Command{Kind: Verbose})
		case 'o':
			c.emit(Command{Kind: ProfilerStart})
		case 'O':
			c.emit(Command{Kind: ProfilerStop})
		case 'j', 'J':
			c.emit(Command{Kind: ProfilerReport})
		case 'b', 'B':
			c.emit(Command{Kind: PlayChime})
		case 'h', 'H', '?':
			c.printHelp()
		default:
			fmt.Fprintf(c.w, "unknown command %q - press 'h' for help\n", b)
		}
	}
}

func (c *Console) finishInput(mode inputMode, text string) {
	switch mode {
	case inputPerson:
		c.emit(Command{Kind: SetPerson, Arg: text})
	case inputLabel:
		c.emit(Command{Kind: SetLabel, Arg: text})
	}
}

// emit delivers without blocking; a full channel drops the command, which is
// acceptable for operator input.
func (c *Console) emit(cmd Command) {
	select {
	case c.out <- cmd:
	default:
		c.log.Warn("command dropped, queue full", "kind", cmd.Kind)
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.w, `commands:
  i/f/w/s/m  toggle imu / finger / network / shake / inference debug
  x          enable or disable speech output
  e          initialize the inference engine
  a          show subsystem status
  d          clear the speech cache
  r/u        calibrate flex sensors / imu
  n          show normalized flex values
  p/l        set person id / gesture label (then ENTER)
  g/t        start / stop sample logging
  q/v        quiet / verbose debug
  o/O/j      profiler start / stop / report
  b          play the startup chime
  h/?        this help
`)
}

// Serial opens a serial port for console use.
func Serial(name string, baud int) (io.ReadWriteCloser, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("console: open serial port: %w", err)
	}
	return port, nil
}
