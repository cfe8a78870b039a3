// Package recording models the camera recordings a recorder service archives.
package recording

import (
	"context"
	"sort"
	"time"
)

// Stream is one camera input known to the recorder
type Stream struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Active        bool   `json:"active"`
	InErr         bool   `json:"in_err"`
	LastRecording string `json:"last_recording"`
	Source        string `json:"source"`
}

// Motion is a motion event inside a recording
type Motion struct {
	// T is the event time in seconds from the recording start
	T float64 `json:"t"`
	// S is the event score, 0-100
	S float64 `json:"s"`
}

// Recording is one archived segment
type Recording struct {
	ID                    string   `json:"id"`
	StreamID              string   `json:"stream_id"`
	StreamName            string   `json:"stream_name"`
	Start                 string   `json:"start"`
	End                   string   `json:"end"`
	Path                  string   `json:"path"`
	ThumbnailPath         string   `json:"thumbnail_path"`
	PerformedMotionDetect bool     `json:"performed_motion_detect"`
	Motion                []Motion `json:"motion"`
}

// Source lists recordings and fetches their media
type Source interface {
	Streams(ctx context.Context) ([]Stream, error)
	Recordings(ctx context.Context) ([]Recording, error)
	Download(ctx context.Context, rec Recording) ([]byte, error)
}

// StartTime parses Start; the zero time when it is malformed
func (r Recording) StartTime() time.Time {
	return parseTime(r.Start)
}

// EndTime parses End; the zero time when it is malformed
func (r Recording) EndTime() time.Time {
	return parseTime(r.End)
}

// Duration is the span between Start and End
func (r Recording) Duration() time.Duration {
	start, end := r.StartTime(), r.EndTime()
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// SortByStart orders recordings oldest first, breaking ties by path
func SortByStart(recordings []Recording) {
	sort.SliceStable(recordings, func(i, j int) bool {
		a, b := recordings[i].StartTime(), recordings[j].StartTime()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return recordings[i].Path < recordings[j].Path
	})
}

// Filter keeps recordings of streamID (any stream when empty) that overlap
// [from, to). Zero bounds are open.
func Filter(recordings []Recording, streamID string, from, to time.Time) []Recording {
	var result []Recording
	for _, r := range recordings {
		if streamID != "" && r.StreamID != streamID {
			continue
		}
		if !from.IsZero() && !r.EndTime().IsZero() && !r.EndTime().After(from) {
			continue
		}
		if !to.IsZero() && !r.StartTime().Before(to) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// SelectIDs returns the recordings whose ID is in ids, in recordings order
func SelectIDs(recordings []Recording, ids []string) []Recording {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var result []Recording
	for _, r := range recordings {
		if wanted[r.ID] {
			result = append(result, r)
		}
	}
	return result
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
