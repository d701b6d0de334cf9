package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Prompter asks questions on a terminal. Reads respect context cancellation.
type Prompter struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewPrompter creates a prompter; nil arguments default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// ReadLine reads one trimmed line. It returns ErrInputCancelled as soon as
// ctx is done; the pending read finishes in the background.
func (p *Prompter) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		value, err := p.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Confirm asks a yes/no question. Empty input selects no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	choice, err := p.Choose(ctx, question+" [y/N]", []string{"y", "yes", "n", "no", ""})
	if err != nil {
		return false, err
	}
	return choice == "y" || choice == "yes", nil
}

// Choose repeats the prompt until the answer is one of validChoices.
// Answers are compared case-insensitively.
func (p *Prompter) Choose(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("input terminated")
			}
			return "", err
		}

		choice := strings.ToLower(input)
		if slices.Contains(validChoices, choice) {
			return choice, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			return "", fmt.Errorf("failed to write error: %w", err)
		}
	}
}

// Ask prompts for free text. Empty input returns def.
func (p *Prompter) Ask(ctx context.Context, prompt, def string) (string, error) {
	label := prompt
	if def != "" {
		label = fmt.Sprintf("%s [%s]", prompt, def)
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	input, err := p.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if input == "" {
		return def, nil
	}
	return input, nil
}
