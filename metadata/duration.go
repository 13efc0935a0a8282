package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	mp4 "github.com/abema/go-mp4"
	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	flac "github.com/go-flac/go-flac"
	"github.com/tcolgate/mp3"
)

// probeDuration decodes just enough of the stream to learn its play time.
// Each container format has its own probe; formats without one (notably ogg)
// report an error and the duration stays unknown.
func probeDuration(data []byte, format string) (time.Duration, error) {
	switch format {
	case ".flac":
		return flacDuration(data)
	case ".m4a":
		return mp4Duration(data)
	case ".mp3":
		return mp3Duration(data)
	case ".wav":
		return wavDuration(data)
	case ".aiff":
		return aiffDuration(data)
	default:
		return 0, fmt.Errorf("no duration probe for %s", format)
	}
}

func flacDuration(data []byte) (time.Duration, error) {
	f, err := flac.ParseBytes(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	info, err := f.GetStreamInfo()
	if err != nil {
		return 0, err
	}
	if info.SampleRate <= 0 {
		return 0, errors.New("flac stream info has no sample rate")
	}
	seconds := float64(info.SampleCount) / float64(info.SampleRate)
	return time.Duration(seconds * float64(time.Second)), nil
}

func mp4Duration(data []byte) (time.Duration, error) {
	info, err := mp4.Probe(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	if info.Timescale == 0 {
		return 0, errors.New("mp4 movie header has no timescale")
	}
	seconds := float64(info.Duration) / float64(info.Timescale)
	return time.Duration(seconds * float64(time.Second)), nil
}

func mp3Duration(data []byte) (time.Duration, error) {
	d := mp3.NewDecoder(bytes.NewReader(data))

	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			break
		}
		total += frame.Duration()
	}
	if total == 0 {
		return 0, errors.New("no mp3 frames decoded")
	}
	return total, nil
}

func wavDuration(data []byte) (time.Duration, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return 0, errors.New("not a valid wav file")
	}
	return d.Duration()
}

func aiffDuration(data []byte) (time.Duration, error) {
	d := aiff.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return 0, errors.New("not a valid aiff file")
	}
	return d.Duration()
}
