package console

import (
	"io"
	"strings"
	"testing"
)

// runConsole parses input to completion and returns the emitted commands.
func runConsole(t *testing.T, input string) []Command {
	t.Helper()
	c := New(strings.NewReader(input), io.Discard)
	c.Run()
	var cmds []Command
	for {
		select {
		case cmd := <-c.Commands():
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

func TestSingleCharCommands(t *testing.T) {
	cases := []struct {
		input string
		want  Kind
	}{
		{"i", ToggleIMUDebug},
		{"F", ToggleFingerDebug},
		{"w", ToggleNetDebug},
		{"s", ToggleShakeDebug},
		{"m", ToggleInferenceDebug},
		{"x", ToggleSpeech},
		{"e", InitInference},
		{"a", Status},
		{"d", ClearCache},
		{"r", CalibrateFlex},
		{"u", CalibrateIMU},
		{"n", ShowNormalized},
		{"g", StartLogging},
		{"t", StopLogging},
		{"q", Quiet},
		{"v", Verbose},
		{"o", ProfilerStart},
		{"O", ProfilerStop},
		{"j", ProfilerReport},
		{"b", PlayChime},
	}
	for _, tc := range cases {
		cmds := runConsole(t, tc.input)
		if len(cmds) != 1 || cmds[0].Kind != tc.want {
			t.Fatalf("input %q: commands = %v, want one of kind %d", tc.input, cmds, tc.want)
		}
	}
}

func TestPersonEntry(t *testing.T) {
	cmds := runConsole(t, "pP1\n")
	if len(cmds) != 1 || cmds[0].Kind != SetPerson || cmds[0].Arg != "P1" {
		t.Fatalf("commands = %v, want SetPerson P1", cmds)
	}
}

func TestLabelEntry(t *testing.T) {
	cmds := runConsole(t, "lHELLO\r\n")
	if len(cmds) != 1 || cmds[0].Kind != SetLabel || cmds[0].Arg != "HELLO" {
		t.Fatalf("commands = %v, want SetLabel HELLO", cmds)
	}
}

func TestPendingInputSwallowsCommandLetters(t *testing.T) {
	// The letters of the entered text must not fire as commands.
	cmds := runConsole(t, "pqvx\ni")
	if len(cmds) != 2 {
		t.Fatalf("commands = %v, want exactly two", cmds)
	}
	if cmds[0].Kind != SetPerson || cmds[0].Arg != "qvx" {
		t.Fatalf("first = %v, want SetPerson qvx", cmds[0])
	}
	if cmds[1].Kind != ToggleIMUDebug {
		t.Fatalf("second = %v, want ToggleIMUDebug", cmds[1])
	}
}

func TestPendingInputLengthCap(t *testing.T) {
	long := strings.Repeat("A", 64)
	cmds := runConsole(t, "l"+long+"\n")
	if len(cmds) != 1 || len(cmds[0].Arg) != 31 {
		t.Fatalf("commands = %v, want one arg of 31 chars", cmds)
	}
}

func TestUnknownCommandPrompts(t *testing.T) {
	var out strings.Builder
	c := New(strings.NewReader("z"), &out)
	c.Run()
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("output = %q", out.String())
	}
	select {
	case cmd := <-c.Commands():
		t.Fatalf("unexpected command %v", cmd)
	default:
	}
}

func TestHelpDoesNotEmit(t *testing.T) {
	var out strings.Builder
	c := New(strings.NewReader("h"), &out)
	c.Run()
	if !strings.Contains(out.String(), "commands:") {
		t.Fatalf("help output = %q", out.String())
	}
	select {
	case cmd := <-c.Commands():
		t.Fatalf("unexpected command %v", cmd)
	default:
	}
}
