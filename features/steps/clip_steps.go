//go:build integration

package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"clipmaker/cmd"
	"clipmaker/domain/recording"
	"clipmaker/domain/video"
	"clipmaker/infrastructure/recorder"

	"github.com/cucumber/godog"
)

type clipContext struct {
	server  *httptest.Server
	mu      sync.Mutex
	recs    []recording.Recording
	media   map[string][]byte
	prompts []string
}

var SharedClipContext = &clipContext{}

// pickPrompter chooses every offered recording whose start time is listed
type pickPrompter struct {
	MockPrompter
	starts []string
}

func (p *pickPrompter) MultiSelect(message string, options []string) ([]string, error) {
	p.prompts = append(p.prompts, message)
	var chosen []string
	for _, o := range options {
		for _, s := range p.starts {
			if strings.Contains(o, s) {
				chosen = append(chosen, o)
				break
			}
		}
	}
	return chosen, nil
}

func InitializeClipScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedClipContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.recs = nil
		testCtx.media = make(map[string][]byte)
		testCtx.prompts = nil
		testCtx.server = httptest.NewServer(http.HandlerFunc(testCtx.serve))
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.server != nil {
			testCtx.server.Close()
		}
		return c, nil
	})

	ctx.Step(`^the recorder has recordings:$`, testCtx.theRecorderHasRecordings)
	ctx.Step(`^the media for recording "([^"]*)" is missing$`, testCtx.theMediaForRecordingIsMissing)
	ctx.Step(`^I make a clip of stream "([^"]*)" from "([^"]*)" to "([^"]*)" into "([^"]*)"$`, testCtx.iMakeAClipOfStreamFromTo)
	ctx.Step(`^I make a clip of recordings "([^"]*)" into "([^"]*)"$`, testCtx.iMakeAClipOfRecordings)
	ctx.Step(`^I make a clip of recordings "([^"]*)" into "([^"]*)" trimmed from "([^"]*)" for "([^"]*)"$`, testCtx.iMakeAClipOfRecordingsTrimmed)
	ctx.Step(`^I make a clip of stream "([^"]*)" picking recordings starting "([^"]*)" into "([^"]*)"$`, testCtx.iMakeAClipPicking)
	ctx.Step(`^I list the recordings of stream "([^"]*)"$`, testCtx.iListTheRecordingsOfStream)
	ctx.Step(`^I list the streams$`, testCtx.iListTheStreams)
	ctx.Step(`^I should have been asked "([^"]*)"$`, testCtx.iShouldHaveBeenAsked)
}

func (c *clipContext) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch r.URL.Path {
	case "/api/streams":
		seen := make(map[string]bool)
		var streams []recording.Stream
		for _, rec := range c.recs {
			if !seen[rec.StreamID] {
				seen[rec.StreamID] = true
				streams = append(streams, recording.Stream{ID: rec.StreamID, Name: rec.StreamName, Active: true})
			}
		}
		json.NewEncoder(w).Encode(streams)
	case "/api/recordings":
		// newest first, as the recorder returns them
		out := make([]recording.Recording, len(c.recs))
		for i, rec := range c.recs {
			out[len(c.recs)-1-i] = rec
		}
		json.NewEncoder(w).Encode(out)
	default:
		data, ok := c.media[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(data)
	}
}

func (c *clipContext) theRecorderHasRecordings(table *godog.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(table.Rows) < 2 {
		return fmt.Errorf("expected a header row and at least one recording")
	}
	header := make(map[string]int)
	for i, cell := range table.Rows[0].Cells {
		header[cell.Value] = i
	}
	for _, col := range []string{"id", "stream", "start", "end", "content"} {
		if _, ok := header[col]; !ok {
			return fmt.Errorf("missing column %q", col)
		}
	}

	for _, row := range table.Rows[1:] {
		value := func(col string) string { return row.Cells[header[col]].Value }
		rec := recording.Recording{
			ID:         value("id"),
			StreamID:   value("stream"),
			StreamName: strings.ToUpper(value("stream")[:1]) + value("stream")[1:],
			Start:      value("start"),
			End:        value("end"),
			Path:       "/media/" + value("id") + ".mp4",
		}
		c.recs = append(c.recs, rec)
		c.media[rec.Path] = []byte(value("content"))
	}
	return nil
}

func (c *clipContext) theMediaForRecordingIsMissing(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.media, "/media/"+id+".mp4")
	return nil
}

func (c *clipContext) runClip(prompter cmd.Prompter, input cmd.ClipInput) error {
	v := SharedVideoContext
	source, err := recorder.NewClient(c.server.URL)
	if err != nil {
		return err
	}
	v.err = cmd.RunClipWithDependencies(context.Background(), source, v.stack.service,
		[]video.ClipSaver{v.files}, prompter, input, v.output)
	return nil
}

func (c *clipContext) iMakeAClipOfStreamFromTo(stream, from, to, output string) error {
	return c.runClip(nil, cmd.ClipInput{StreamID: stream, From: from, To: to, OutputName: output})
}

func (c *clipContext) iMakeAClipOfRecordings(ids, output string) error {
	return c.runClip(nil, cmd.ClipInput{IDs: splitList(ids), OutputName: output})
}

func (c *clipContext) iMakeAClipOfRecordingsTrimmed(ids, output, start, duration string) error {
	return c.runClip(nil, cmd.ClipInput{IDs: splitList(ids), Start: start, Duration: duration, OutputName: output})
}

func (c *clipContext) iMakeAClipPicking(stream, starts, output string) error {
	prompter := &pickPrompter{starts: splitList(starts)}
	err := c.runClip(prompter, cmd.ClipInput{StreamID: stream, OutputName: output})
	c.prompts = prompter.prompts
	return err
}

func (c *clipContext) iListTheRecordingsOfStream(stream string) error {
	v := SharedVideoContext
	source, err := recorder.NewClient(c.server.URL)
	if err != nil {
		return err
	}
	v.err = cmd.RunRecordingsWithDependencies(context.Background(), source, stream, v.output)
	return nil
}

func (c *clipContext) iListTheStreams() error {
	v := SharedVideoContext
	source, err := recorder.NewClient(c.server.URL)
	if err != nil {
		return err
	}
	v.err = cmd.RunStreamsWithDependencies(context.Background(), source, v.output)
	return nil
}

func (c *clipContext) iShouldHaveBeenAsked(message string) error {
	for _, p := range c.prompts {
		if p == message {
			return nil
		}
	}
	return fmt.Errorf("expected prompt %q, got %v", message, c.prompts)
}
