//go:build !probe

package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clipmaker/domain/video"
)

type ffprobeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe on path
func (p *Prober) Probe(ctx context.Context, path string) (video.ClipInfo, error) {
	out, err := p.runner.Output(ctx, p.ffprobe,
		"-v", "quiet",
		"-of", "json",
		"-select_streams", "v:0",
		"-show_entries", "format=duration:stream=width,height,avg_frame_rate,nb_frames",
		path,
	)
	if err != nil {
		return video.ClipInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return video.ClipInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	secs, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil {
		return video.ClipInfo{}, fmt.Errorf("failed to parse ffprobe duration %q: %w", parsed.Format.Duration, err)
	}

	info := video.ClipInfo{Duration: time.Duration(secs * float64(time.Second))}
	if len(parsed.Streams) > 0 {
		s := parsed.Streams[0]
		info.Width = s.Width
		info.Height = s.Height
		info.FPS = parseRate(s.AvgFrameRate)
		info.Frames, _ = strconv.Atoi(s.NbFrames)
	}
	if info.Frames == 0 && info.FPS > 0 {
		info.Frames = int(secs*info.FPS + 0.5)
	}

	return info, nil
}

// parseRate reads ffprobe's "num/den" rates
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
