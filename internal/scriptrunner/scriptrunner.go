// Package scriptrunner tokenizes the command-script grammar of §6 and
// dispatches each command to a vncclient.Client, building a chain that
// runs as a unit.
package scriptrunner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sibson/vncdotool/internal/vncclient"
)

// Run tokenizes script (whitespace-separated) and queues each command
// against client, expanding any token that names an existing file into
// that file's own tokens (recursively), and "-" into stdin's tokens.
// interCommandDelay is inserted after every dispatched command (not just
// explicit "pause"/"sleep" ones), matching VNCDOTOOL_DELAY's effect on
// the reference command-line tool; pass 0 to disable it.
func Run(client *vncclient.Client, script string, interCommandDelay time.Duration) error {
	tokens, err := tokenize(script, 0)
	if err != nil {
		return err
	}
	return dispatch(client, tokens, interCommandDelay)
}

const maxExpansionDepth = 16

// tokenize splits script on whitespace, expanding file-path and stdin
// tokens in place. depth guards against a file that (directly or
// indirectly) includes itself.
func tokenize(script string, depth int) ([]string, error) {
	if depth > maxExpansionDepth {
		return nil, fmt.Errorf("scriptrunner: command script expansion too deep (possible cycle)")
	}

	raw := strings.Fields(script)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		switch {
		case tok == "-":
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("scriptrunner: reading stdin: %w", err)
			}
			expanded, err := tokenize(string(data), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)

		case isExistingFile(tok):
			data, err := os.ReadFile(tok)
			if err != nil {
				return nil, fmt.Errorf("scriptrunner: reading %s: %w", tok, err)
			}
			expanded, err := tokenize(string(data), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)

		default:
			out = append(out, tok)
		}
	}
	return out, nil
}

func isExistingFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dispatch consumes tokens left to right, one command at a time.
func dispatch(client *vncclient.Client, tokens []string, interCommandDelay time.Duration) error {
	for len(tokens) > 0 {
		cmd := tokens[0]
		tokens = tokens[1:]

		var err error
		tokens, err = applyCommand(client, cmd, tokens)
		if err != nil {
			return err
		}
		if interCommandDelay > 0 {
			client.Pause(interCommandDelay)
		}
	}
	return nil
}

func applyCommand(client *vncclient.Client, cmd string, rest []string) ([]string, error) {
	need := func(n int) error {
		if len(rest) < n {
			return fmt.Errorf("scriptrunner: %s requires %d argument(s)", cmd, n)
		}
		return nil
	}

	switch cmd {
	case "key":
		if err := need(1); err != nil {
			return nil, err
		}
		client.KeyPress(rest[0])
		return rest[1:], nil

	case "keydown":
		if err := need(1); err != nil {
			return nil, err
		}
		client.KeyDown(rest[0])
		return rest[1:], nil

	case "keyup":
		if err := need(1); err != nil {
			return nil, err
		}
		client.KeyUp(rest[0])
		return rest[1:], nil

	case "type":
		if err := need(1); err != nil {
			return nil, err
		}
		for _, r := range rest[0] {
			client.KeyPress(string(r))
		}
		return rest[1:], nil

	case "typefile":
		if err := need(1); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(rest[0])
		if err != nil {
			return nil, fmt.Errorf("scriptrunner: typefile %s: %w", rest[0], err)
		}
		for _, r := range string(data) {
			client.KeyPress(string(r))
		}
		return rest[1:], nil

	case "pastefile":
		if err := need(1); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(rest[0])
		if err != nil {
			return nil, fmt.Errorf("scriptrunner: pastefile %s: %w", rest[0], err)
		}
		client.Paste(string(data))
		return rest[1:], nil

	case "move", "mousemove":
		if err := need(2); err != nil {
			return nil, err
		}
		x, y, err := parseTwoInts(rest[0], rest[1])
		if err != nil {
			return nil, err
		}
		client.MouseMove(x, y)
		return rest[2:], nil

	case "click":
		if err := need(1); err != nil {
			return nil, err
		}
		b, err := strconv.Atoi(rest[0])
		if err != nil {
			return nil, fmt.Errorf("scriptrunner: click: %w", err)
		}
		client.MousePress(b)
		return rest[1:], nil

	case "mousedown":
		if err := need(1); err != nil {
			return nil, err
		}
		b, err := strconv.Atoi(rest[0])
		if err != nil {
			return nil, fmt.Errorf("scriptrunner: mousedown: %w", err)
		}
		client.MouseDown(b)
		return rest[1:], nil

	case "mouseup":
		if err := need(1); err != nil {
			return nil, err
		}
		b, err := strconv.Atoi(rest[0])
		if err != nil {
			return nil, fmt.Errorf("scriptrunner: mouseup: %w", err)
		}
		client.MouseUp(b)
		return rest[1:], nil

	case "drag":
		if err := need(2); err != nil {
			return nil, err
		}
		x, y, err := parseTwoInts(rest[0], rest[1])
		if err != nil {
			return nil, err
		}
		client.MouseDrag(x, y, 1)
		return rest[2:], nil

	case "capture":
		if err := need(1); err != nil {
			return nil, err
		}
		if err := requireCaptureExt(rest[0]); err != nil {
			return nil, err
		}
		client.CaptureScreen(rest[0])
		return rest[1:], nil

	case "rcapture":
		if err := need(5); err != nil {
			return nil, err
		}
		if err := requireCaptureExt(rest[0]); err != nil {
			return nil, err
		}
		x, y, w, h, err := parseFourInts(rest[1], rest[2], rest[3], rest[4])
		if err != nil {
			return nil, err
		}
		client.CaptureRegion(rest[0], x, y, w, h)
		return rest[5:], nil

	case "expect":
		if err := need(2); err != nil {
			return nil, err
		}
		fuzz, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return nil, fmt.Errorf("scriptrunner: expect fuzz: %w", err)
		}
		client.ExpectScreen(rest[0], fuzz)
		return rest[2:], nil

	case "rexpect":
		if err := need(4); err != nil {
			return nil, err
		}
		x, y, err := parseTwoInts(rest[1], rest[2])
		if err != nil {
			return nil, err
		}
		fuzz, err := strconv.ParseFloat(rest[3], 64)
		if err != nil {
			return nil, fmt.Errorf("scriptrunner: rexpect fuzz: %w", err)
		}
		client.ExpectRegionAt(rest[0], fuzz, x, y)
		return rest[4:], nil

	case "pause", "sleep":
		if err := need(1); err != nil {
			return nil, err
		}
		secs, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return nil, fmt.Errorf("scriptrunner: %s: %w", cmd, err)
		}
		client.Pause(time.Duration(secs * float64(time.Second)))
		return rest[1:], nil

	default:
		return nil, fmt.Errorf("scriptrunner: unknown command %q", cmd)
	}
}

var captureExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true}

func requireCaptureExt(path string) error {
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return fmt.Errorf("scriptrunner: capture path %q has no extension", path)
	}
	if !captureExts[strings.ToLower(path[dot:])] {
		return fmt.Errorf("scriptrunner: capture path %q has unsupported extension", path)
	}
	return nil
}

func parseTwoInts(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("scriptrunner: %w", err)
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("scriptrunner: %w", err)
	}
	return x, y, nil
}

func parseFourInts(a, b, c, d string) (int, int, int, int, error) {
	x, y, err := parseTwoInts(a, b)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	w, h, err := parseTwoInts(c, d)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return x, y, w, h, nil
}

// ReadScript reads an entire script from r as one string. The CLI does not
// call it: Run expands script files and "-" (stdin) while tokenizing.
func ReadScript(r io.Reader) (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	return sb.String(), scanner.Err()
}
