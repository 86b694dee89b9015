package tesseract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/utils"
	"go.uber.org/zap"
)

// Extractor runs the tesseract command line over a transient copy of each image
type Extractor struct {
	binary        string
	languages     string
	tempDir       string
	timeout       time.Duration
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new tesseract extractor. An empty tempDir means the
// system temp directory; a zero timeout disables the time limit.
func NewExtractor(
	binary string,
	languages string,
	tempDir string,
	timeout time.Duration,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Extractor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Extractor{
		binary:        binary,
		languages:     languages,
		tempDir:       tempDir,
		timeout:       timeout,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Extract stores image in a uniquely named file, recognizes it and removes
// the file again on every return path
func (e *Extractor) Extract(ctx context.Context, image []byte) (text string, err error) {
	path, err := e.store(image)
	if err != nil {
		return "", core.NewIOFailure(err)
	}

	defer func() {
		rmErr := os.Remove(path)
		if rmErr == nil || errors.Is(rmErr, fs.ErrNotExist) {
			return
		}
		if err == nil {
			text = ""
			err = core.NewIOFailure(fmt.Errorf("failed to remove %s: %w", path, rmErr))
			return
		}
		e.logger.Error("Failed to remove transient image", zap.String("path", path), zap.Error(rmErr))
	}()

	out, err := e.run(ctx, path)
	if err != nil {
		return "", core.NewEngineFailure(err)
	}

	if !e.textProcessor.IsValid(out) {
		return "", core.NewEngineFailure(errors.New("recognizer output is not valid UTF-8"))
	}

	text = e.textProcessor.Normalize(string(out))
	e.logger.Debug("Recognized image text",
		zap.String("path", path),
		zap.Int("text_size", len(text)))

	return text, nil
}

func (e *Extractor) store(image []byte) (string, error) {
	name := "image-" + uuid.NewString() + mimetype.Detect(image).Extension()
	path := filepath.Join(e.tempDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create transient image: %w", err)
	}

	if _, err := f.Write(image); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write transient image: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close transient image: %w", err)
	}

	return path, nil
}

func (e *Extractor) run(ctx context.Context, path string) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := []string{path, "-"}
	if e.languages != "" {
		args = append(args, "-l", e.languages)
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s timed out after %s", e.binary, e.timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, fmt.Errorf("%s exited with %d: %s", e.binary, exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
	}

	return nil, fmt.Errorf("failed to run %s: %w", e.binary, err)
}
