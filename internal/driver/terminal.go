package driver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// Terminal reviews forms over a line-oriented console. When the output is
// a terminal the form is rendered as markdown.
type Terminal struct {
	in       *bufio.Reader
	out      io.Writer
	renderer *glamour.TermRenderer
}

// NewTerminal creates a Terminal reading replies from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		); err == nil {
			t.renderer = r
		}
	}
	return t
}

// Review prints the form and prompt, then reads one line of reply.
// It returns ctx.Err() if ctx ends first.
func (t *Terminal) Review(ctx context.Context, prompt, form string) (string, error) {
	fmt.Fprintln(t.out, "We've filled in your form! Here are the results:")
	fmt.Fprintln(t.out, t.render(form))
	fmt.Fprint(t.out, prompt+"\n> ")

	type line struct {
		text string
		err  error
	}
	read := make(chan line, 1)
	go func() {
		text, err := t.in.ReadString('\n')
		read <- line{text: text, err: err}
	}()

	select {
	case l := <-read:
		if l.err != nil && (l.err != io.EOF || l.text == "") {
			return "", fmt.Errorf("read reply: %w", l.err)
		}
		return strings.TrimRight(l.text, "\r\n"), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Print writes the accepted form.
func (t *Terminal) Print(form string) {
	fmt.Fprintln(t.out, t.render(form))
}

func (t *Terminal) render(form string) string {
	if t.renderer == nil {
		return form
	}
	out, err := t.renderer.Render(form)
	if err != nil {
		return form
	}
	return out
}
