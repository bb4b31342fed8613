// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// sniffLen is the number of header bytes filetype needs to classify a file.
const sniffLen = 262

// FFmpegDecoder implements Decoder on top of the ffmpeg and ffprobe binaries
// found on PATH.
type FFmpegDecoder struct {
	// ProbeFunc returns ffprobe's JSON for a file. Defaults to ffmpeg.Probe.
	ProbeFunc func(path string) (string, error)
}

// NewFFmpegDecoder returns a decoder using the ffmpeg binaries on PATH.
func NewFFmpegDecoder() *FFmpegDecoder {
	return &FFmpegDecoder{ProbeFunc: func(path string) (string, error) {
		return ffmpeg.Probe(path)
	}}
}

// Probe inspects path with ffprobe.
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (*model.VideoInfo, error) {
	const op = "probe-video"
	if err := checkReadableVideo(op, path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := d.ProbeFunc(path)
	if err != nil {
		return nil, model.WrapError(model.KindUnreadableVideo, op, err, "ffprobe failed for %s", path)
	}
	return ParseProbe(path, out)
}

// ParseProbe extracts a VideoInfo from ffprobe's "-show_format -show_streams
// -of json" output.
func ParseProbe(path string, probeJSON string) (*model.VideoInfo, error) {
	const op = "probe-video"
	if !gjson.Valid(probeJSON) {
		return nil, model.NewError(model.KindUnreadableVideo, op, "ffprobe returned invalid json for %s", path)
	}
	stream := gjson.Get(probeJSON, `streams.#(codec_type=="video")`)
	if !stream.Exists() {
		return nil, model.NewError(model.KindUnreadableVideo, op, "%s has no video stream", path)
	}

	fps := parseRate(stream.Get("r_frame_rate").String())
	if fps <= 0 {
		fps = parseRate(stream.Get("avg_frame_rate").String())
	}
	if fps <= 0 {
		return nil, model.NewError(model.KindUnreadableVideo, op, "%s reports no usable frame rate", path)
	}

	duration := gjson.Get(probeJSON, "format.duration").Float()
	if duration <= 0 {
		duration = stream.Get("duration").Float()
	}
	if duration <= 0 {
		return nil, model.NewError(model.KindUnreadableVideo, op, "%s reports no duration", path)
	}

	return &model.VideoInfo{
		Path:      path,
		Duration:  duration,
		NativeFPS: fps,
		Width:     int(stream.Get("width").Int()),
		Height:    int(stream.Get("height").Int()),
		Codec:     stream.Get("codec_name").String(),
	}, nil
}

// parseRate parses ffprobe rationals such as "30000/1001". It returns 0 for
// "0/0" and anything unparsable.
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	dn, err := strconv.ParseFloat(den, 64)
	if err != nil || dn == 0 {
		return 0
	}
	return n / dn
}

// DecodeAt seeks to timestamp and decodes exactly one frame, streamed back as
// a PNG over stdout so the frame size always matches what ffmpeg rendered.
//
// Every call starts its own ffmpeg process: a native-rate extraction of a
// 20 second 30 fps clip runs 600 of them. Bound the frame count with
// max_frames or fps, and spread the calls with workflow.WithDecodeWorkers.
func (d *FFmpegDecoder) DecodeAt(ctx context.Context, path string, timestamp float64) (*model.Frame, error) {
	const op = "decode-frames"
	at := model.FormatTimecode(timestamp)

	var stdout, stderr bytes.Buffer
	cmd := ffmpeg.Input(path, ffmpeg.KwArgs{"ss": strconv.FormatFloat(timestamp, 'f', 6, 64)}).
		Output("pipe:", ffmpeg.KwArgs{"vframes": 1, "format": "image2", "vcodec": "png"}).
		WithOutput(&stdout).
		WithErrorOutput(&stderr).
		Compile()

	if err := cmd.Start(); err != nil {
		return nil, model.WrapError(model.KindDecodeError, op, err, "failed to start ffmpeg for frame at %s", at)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, model.WrapError(model.KindDecodeError, op, err, "ffmpeg failed for frame at %s: %s", at, lastLine(stderr.String()))
		}
	}

	if stdout.Len() == 0 {
		return nil, model.NewError(model.KindDecodeError, op, "no frame decoded at %s", at)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, model.WrapError(model.KindDecodeError, op, err, "undecodable frame at %s", at)
	}
	return model.FrameFromRGBA(0, timestamp, toRGBA(img)), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// checkReadableVideo reports VideoNotFound for a missing path and
// UnreadableVideo for files whose header identifies them as something other
// than video. Files filetype does not recognise are left to ffprobe.
func checkReadableVideo(op, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.WrapError(model.KindVideoNotFound, op, err, "no video at %s", path)
	}
	if err != nil {
		return model.WrapError(model.KindUnreadableVideo, op, err, "cannot stat %s", path)
	}
	if info.IsDir() {
		return model.NewError(model.KindUnreadableVideo, op, "%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return model.WrapError(model.KindUnreadableVideo, op, err, "cannot open %s", path)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return model.WrapError(model.KindUnreadableVideo, op, err, "cannot read %s", path)
	}
	if n == 0 {
		return model.NewError(model.KindUnreadableVideo, op, "%s is empty", path)
	}
	kind, _ := filetype.Match(head[:n])
	if kind != filetype.Unknown && !filetype.IsVideo(head[:n]) {
		return model.NewError(model.KindUnreadableVideo, op, "%s is %s, not video", path, kind.MIME.Value)
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
