package prompt

import (
	"bufio"
	"context"
	"crypto/rand"
	stderrs "errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
)

// Prompt is a line-oriented ports.Operator.
type Prompt struct {
	in     *bufio.Reader
	file   *os.File
	out    io.Writer
	token  func() (string, error)
	logger ports.Logger
}

var _ ports.Operator = (*Prompt)(nil)

type Option func(*Prompt)

// WithTokenSource replaces the random confirmation code generator.
func WithTokenSource(fn func() (string, error)) Option {
	return func(p *Prompt) { p.token = fn }
}

func New(in io.Reader, out io.Writer, logger ports.Logger, opts ...Option) *Prompt {
	p := &Prompt{
		in:     bufio.NewReader(in),
		out:    out,
		token:  randomToken,
		logger: logger,
	}
	if f, ok := in.(*os.File); ok {
		p.file = f
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func randomToken() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Interactive reports whether answers come from a terminal.
func (p *Prompt) Interactive() bool {
	return p.file != nil && term.IsTerminal(int(p.file.Fd()))
}

func (p *Prompt) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(stderrs.Is(err, io.EOF) && line != "") {
		if stderrs.Is(err, io.EOF) {
			return "", errors.NewUserFacing(errors.CodeInternal,
				"no answer available, input was closed",
				"Run interactively, or pass --auto and explicit flags.")
		}
		return "", errors.Wrap(err, errors.CodeInternal, "cannot read operator input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Prompt) Ask(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	answer, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Confirm poses a yes/no question. An empty answer takes the default and any
// answer starting with "y" means yes.
func (p *Prompt) Confirm(ctx context.Context, question string, defaultAnswer bool) (bool, error) {
	hint := "[y/N]"
	if defaultAnswer {
		hint = "[Y/n]"
	}
	fmt.Fprintf(p.out, "%s %s: ", question, hint)
	answer, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return defaultAnswer, nil
	}
	return strings.HasPrefix(answer, "y"), nil
}

// ConfirmWithToken asks the operator to type back a random six digit code.
func (p *Prompt) ConfirmWithToken(ctx context.Context, prompt string) (bool, error) {
	code, err := p.token()
	if err != nil {
		return false, errors.Wrap(err, errors.CodeInternal, "cannot generate confirmation code")
	}
	if prompt != "" {
		fmt.Fprintln(p.out, prompt)
	}
	fmt.Fprintf(p.out, "Type in the code shown to continue [%s]: ", code)
	answer, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(answer) != code {
		fmt.Fprintln(p.out, "PIN incorrect.")
		p.logger.Infof(ctx, "Confirmation code mismatch")
		return false, nil
	}
	return true, nil
}
