package ffmpeg

import (
	"regexp"
	"strconv"
	"time"

	"clipmaker/domain/video"
)

var (
	durationRegex = regexp.MustCompile(`Duration: (\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	timeRegex     = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// ProgressParser turns ffmpeg stderr lines into progress events. The expected
// length comes from the command's -t argument, or failing that from the first
// "Duration:" line ffmpeg prints for its input.
type ProgressParser struct {
	total time.Duration
}

// NewProgressParser creates a parser for one command
func NewProgressParser(args []string) *ProgressParser {
	p := &ProgressParser{}
	for i := 0; i < len(args)-1; i++ {
		if args[i] != "-t" {
			continue
		}
		if secs, err := strconv.ParseFloat(args[i+1], 64); err == nil && secs > 0 {
			p.total = seconds(secs)
		}
	}
	return p
}

// Parse inspects one log line. It returns an event when the line reports
// encoding time and the expected length is known.
func (p *ProgressParser) Parse(line string) (video.ProgressEvent, bool) {
	if p.total == 0 {
		if m := durationRegex.FindStringSubmatch(line); m != nil {
			p.total = clock(m[1], m[2], m[3])
			return video.ProgressEvent{}, false
		}
	}

	m := timeRegex.FindStringSubmatch(line)
	if m == nil || p.total <= 0 {
		return video.ProgressEvent{}, false
	}

	elapsed := clock(m[1], m[2], m[3])
	fraction := float64(elapsed) / float64(p.total)
	if fraction > 1 {
		fraction = 1
	}

	return video.ProgressEvent{Progress: fraction, Time: elapsed}, true
}

func clock(h, m, s string) time.Duration {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	secs, _ := strconv.ParseFloat(s, 64)
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + seconds(secs)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
