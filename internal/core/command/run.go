// Package command
package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	initialScannerBufferSize = 4096
	maxScannerBufferSize     = 10 * 1024 * 1024
	waitDelay                = time.Second
)

var ErrTimeout = errors.New("command timed out")

type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

type StreamHandler = func(line string, stream Stream)

type Command struct {
	workDir string
	name    string
	args    []string
	timeout time.Duration
}

func NewCommand(workDir, name string, args ...string) *Command {
	return &Command{
		workDir: workDir,
		name:    name,
		args:    args,
	}
}

// WithTimeout bounds every Run. The process is killed once it elapses.
func (c *Command) WithTimeout(d time.Duration) *Command {
	c.timeout = d
	return c
}

// Run executes the command and returns its stdout. Stderr lines are only
// delivered to the handlers.
func (c *Command) Run(ctx context.Context, handlers ...StreamHandler) (string, error) {
	var buf bytes.Buffer

	err := c.execute(ctx, func(line string, stream Stream) {
		if stream == StreamStdout {
			buf.WriteString(line)
			buf.WriteString("\n")
		}

		for _, h := range handlers {
			if h != nil {
				h(line, stream)
			}
		}
	})

	return buf.String(), err
}

func (c *Command) execute(ctx context.Context, handler StreamHandler) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Dir = c.workDir
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}

	// handler is not required to be goroutine safe
	var mu sync.Mutex
	safe := func(line string, stream Stream) {
		mu.Lock()
		handler(line, stream)
		mu.Unlock()
	}

	errChan := make(chan error, 2)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := c.streamOutput(stdout, safe, StreamStdout); err != nil {
			errChan <- fmt.Errorf("stdout stream error: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := c.streamOutput(stderr, safe, StreamStderr); err != nil {
			errChan <- fmt.Errorf("stderr stream error: %w", err)
		}
	}()

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	// On cancellation Wait closes the pipes after waitDelay, which unblocks
	// readers stuck behind an orphaned grandchild.
	select {
	case <-drained:
	case <-ctx.Done():
	}

	cmdErr := cmd.Wait()
	<-drained
	close(errChan)

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", c.name, ErrTimeout)
	}

	if cmdErr != nil {
		return fmt.Errorf("command failed: %w", cmdErr)
	}

	var streamErrs []error
	for err := range errChan {
		streamErrs = append(streamErrs, err)
	}

	if len(streamErrs) > 0 {
		return fmt.Errorf("stream errors occurred: %w", errors.Join(streamErrs...))
	}

	return nil
}

func (c *Command) streamOutput(r io.Reader, handler StreamHandler, stream Stream) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialScannerBufferSize), maxScannerBufferSize)

	for scanner.Scan() {
		for _, line := range normalizeAndSplitLines(scanner.Text()) {
			line = strings.TrimRight(line, " \t")
			if line != "" {
				handler(line, stream)
			}
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

func normalizeAndSplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return strings.Split(text, "\n")
}
