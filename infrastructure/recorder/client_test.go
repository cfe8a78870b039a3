package recorder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clipmaker/domain/recording"
	"clipmaker/domain/video"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/streams", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"doorbell","name":"Doorbell","active":true,"in_err":false,"last_recording":"2025-05-01T20:00:25Z","source":"/media/doorbell/stream/doorbell.m3u8"}]`))
	})
	mux.HandleFunc("/api/recordings", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"doorbell-2025-05-01-20-05-00.mp4","stream_id":"doorbell","stream_name":"Doorbell","start":"2025-05-01T20:05:00Z","end":"2025-05-01T20:10:00Z","path":"/media/doorbell/archive/doorbell-2025-05-01-20-05-00.mp4"},
			{"id":"doorbell-2025-05-01-20-00-00.mp4","stream_id":"doorbell","stream_name":"Doorbell","start":"2025-05-01T20:00:00Z","end":"2025-05-01T20:05:00Z","path":"/media/doorbell/archive/doorbell-2025-05-01-20-00-00.mp4","performed_motion_detect":true,"motion":[{"t":72,"s":8}]}
		]`))
	})
	mux.HandleFunc("/media/doorbell/archive/doorbell-2025-05-01-20-00-00.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp4-bytes"))
	})
	mux.HandleFunc("/broken/api/streams", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"ftp://nvr", "://bad", "nvr.local:3000"} {
		if _, err := NewClient(raw); err == nil {
			t.Errorf("NewClient(%q) expected error", raw)
		}
	}
}

func TestClient_Streams(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}

	streams, err := client.Streams(context.Background())
	if err != nil {
		t.Fatalf("Streams() unexpected error: %v", err)
	}
	if len(streams) != 1 || streams[0].ID != "doorbell" || !streams[0].Active {
		t.Errorf("Streams() = %+v", streams)
	}
}

func TestClient_Streams_ServerError(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(server.URL+"/broken", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Streams(context.Background()); err == nil {
		t.Error("Streams() expected error for a 500 response")
	}
}

func TestClient_RecordingsAndDownload(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(server.URL+"/", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	recordings, err := client.Recordings(ctx)
	if err != nil {
		t.Fatalf("Recordings() unexpected error: %v", err)
	}
	if len(recordings) != 2 {
		t.Fatalf("Recordings() returned %d, want 2", len(recordings))
	}

	recording.SortByStart(recordings)
	oldest := recordings[0]
	if oldest.StartTime().Format(time.RFC3339) != "2025-05-01T20:00:00Z" {
		t.Errorf("oldest start = %v", oldest.StartTime())
	}
	if oldest.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %v, want 5m", oldest.Duration())
	}
	if len(oldest.Motion) != 1 || oldest.Motion[0].T != 72 {
		t.Errorf("Motion = %+v", oldest.Motion)
	}

	data, err := client.Download(ctx, oldest)
	if err != nil || string(data) != "mp4-bytes" {
		t.Errorf("Download() = %q, %v", data, err)
	}

	_, err = client.Download(ctx, recordings[1])
	if !errors.Is(err, video.ErrNotFound) {
		t.Errorf("Download() of a missing file error = %v, want ErrNotFound", err)
	}

	_, err = client.Download(ctx, recording.Recording{ID: "x"})
	if !errors.Is(err, video.ErrInvalidArgument) {
		t.Errorf("Download() without path error = %v, want ErrInvalidArgument", err)
	}
}
