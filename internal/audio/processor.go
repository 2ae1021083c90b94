package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/AudibleTuner/pkg/utils"
)

// ErrFFmpegNotFound means a conversion was needed but ffmpeg is not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH")

type ConvertWAVConfig struct {
	SampleRate int // e.g. 10000, 22050, 44100
	// Timeout bounds ffmpeg when ctx has no deadline. Defaults to 30s.
	Timeout time.Duration
}

// ConvertToMonoWAV runs ffmpeg to turn any audio file into mono 16-bit PCM
// at cfg.SampleRate, written into outputDir under the input's base name.
func ConvertToMonoWAV(ctx context.Context, inputPath, outputDir string, cfg ConvertWAVConfig) (string, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 10000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", ErrFFmpegNotFound
	}
	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s.%dhz.wav", base, cfg.SampleRate))
	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// Probe reads only the WAV header of path.
func Probe(path string) (*goaudio.Format, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, ErrUnsupportedFormat
	}
	return dec.Format(), int(dec.BitDepth), nil
}

// Prepare loads path as a mono clip at sampleRate. Files that are already
// 16-bit mono WAV at that rate are read directly; anything else goes
// through ffmpeg into workDir first.
func Prepare(ctx context.Context, path string, sampleRate int, workDir string, opts LoadOptions) (*Clip, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if format, depth, err := Probe(path); err == nil &&
			format.SampleRate == sampleRate && format.NumChannels == 1 && depth == 16 {
			return LoadWAV(path, opts)
		}
	}

	converted, err := ConvertToMonoWAV(ctx, path, workDir, ConvertWAVConfig{SampleRate: sampleRate})
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", filepath.Base(path), err)
	}
	return LoadWAV(converted, opts)
}
