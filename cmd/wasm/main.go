//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/AudibleTuner/internal/feedback"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorNoPitch
	ErrorAnalyzer
)

const maxFFTSize = 8192

var analyzer, _ = tuning.NewAnalyzer()

// Detects the fundamental of one block of Web Audio samples in [-1, 1].
// Args: audioArray, sampleRate, channels, [targetString]
// Returns: {error: number, data: object | string}
func detectPitch(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float32Array")
	}
	if args[1].Type() != js.TypeNumber || args[2].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate and channels must be numbers")
	}

	sampleRate := args[1].Int()
	channels := args[2].Int()
	target := 0
	if len(args) > 3 && args[3].Type() == js.TypeNumber {
		target = args[3].Int()
	}

	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}

	length := audioDataJS.Length()
	if length < 8*channels {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is too short")
	}

	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		samples[i] = audioDataJS.Index(i).Float()
	}
	if channels == 2 {
		samples = stereoToMono(samples)
	}

	cfg := spectral.DefaultConfig()
	cfg.SampleRate = sampleRate
	cfg.FFTSize = spectral.FitFFTSize(len(samples), maxFFTSize)
	cfg.Interpolate = true
	a, err := spectral.New(cfg)
	if err != nil {
		return makeErrorResponse(ErrorAnalyzer, err.Error())
	}

	det, ok := a.Detect(spectral.FromFloat(samples))
	if !ok {
		return makeErrorResponse(ErrorNoPitch, "No clear pitch (signal too quiet or noisy)")
	}
	r := analyzer.Analyze(det.Frequency, target)
	cadence := feedback.BeepInterval(r.CentsOffset)

	data := js.Global().Get("Object").New()
	data.Set("frequency", det.Frequency)
	data.Set("string", r.TargetString)
	data.Set("detectedString", r.DetectedString)
	data.Set("note", r.NoteName)
	data.Set("detectedNote", r.DetectedNote)
	data.Set("cents", r.CentsOffset)
	data.Set("direction", r.Direction.String())
	data.Set("severity", tuning.SeverityOf(r.CentsOffset).String())
	data.Set("beepIntervalMs", cadence.IntervalMs)
	data.Set("beepDurationMs", cadence.BeepDurationMs)

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func stereoToMono(stereo []float64) []float64 {
	if len(stereo)%2 != 0 {
		stereo = stereo[:len(stereo)-1]
	}

	mono := make([]float64, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) / 2.0
	}
	return mono
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	logf := func(method, msg string) {
		if !console.IsUndefined() {
			console.Call(method, msg)
		}
	}

	logf("log", "🔧 AudibleTuner WASM module initializing...")
	js.Global().Set("detectPitch", js.FuncOf(detectPitch))

	window := js.Global().Get("window")
	if window.IsUndefined() {
		logf("error", "❌ window object is undefined!")
	} else {
		event := js.Global().Get("CustomEvent").New("wasmReady", js.Global().Get("Object").New())
		window.Call("dispatchEvent", event)
	}
	logf("log", "✅ AudibleTuner WASM module loaded and ready")

	select {}
}
