package video

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"clipmaker/domain/video"
)

func assertIdle(t *testing.T, s *Service) {
	t.Helper()
	pub := s.Publisher()
	if got := pub.Progress(); got != 0 {
		t.Errorf("Progress() = %v, want 0", got)
	}
	if label, ok := pub.CurrentOperation(); ok {
		t.Errorf("CurrentOperation() = %q, want none", label)
	}
}

func TestService_TrimVideo(t *testing.T) {
	engine := newFakeEngine()
	svc, _ := newTestService(engine, &fakeLoader{})

	got, err := svc.TrimVideo(context.Background(), []byte("SOURCE"), 5, 10, "out.mp4")
	if err != nil {
		t.Fatalf("TrimVideo() unexpected error: %v", err)
	}

	if len(got) == 0 {
		t.Fatal("TrimVideo() returned an empty buffer")
	}
	if string(got) != "trim[5,10]:SOURCE" {
		t.Errorf("TrimVideo() = %q, want %q", got, "trim[5,10]:SOURCE")
	}

	if len(engine.execs) != 1 {
		t.Fatalf("engine executed %d commands, want 1", len(engine.execs))
	}
	want := []string{"-ss", "5", "-i", "input.mp4", "-t", "10", "-c", "copy", "-avoid_negative_ts", "make_zero", "-y", "out.mp4"}
	if !reflect.DeepEqual(engine.execs[0], want) {
		t.Errorf("trim args = %v, want %v", engine.execs[0], want)
	}

	deletes := engine.callsWithPrefix("delete ")
	if !reflect.DeepEqual(deletes, []string{"input.mp4", "out.mp4"}) {
		t.Errorf("deleted %v, want [input.mp4 out.mp4]", deletes)
	}
	if engine.fileCount() != 0 {
		t.Errorf("%d staged files left behind", engine.fileCount())
	}
	assertIdle(t, svc)
}

func TestService_TrimVideo_DefaultOutputName(t *testing.T) {
	engine := newFakeEngine()
	svc, _ := newTestService(engine, &fakeLoader{})

	if _, err := svc.TrimVideo(context.Background(), []byte("SOURCE"), 0, 1, ""); err != nil {
		t.Fatalf("TrimVideo() unexpected error: %v", err)
	}

	args := engine.execs[0]
	if args[len(args)-1] != video.DefaultOutputName {
		t.Errorf("output name = %q, want %q", args[len(args)-1], video.DefaultOutputName)
	}
}

func TestService_ConcatenateVideos_PreservesOrder(t *testing.T) {
	engine := newFakeEngine()
	svc, _ := newTestService(engine, &fakeLoader{})

	sources := [][]byte{[]byte("A"), []byte("B"), []byte("C")}
	got, err := svc.ConcatenateVideos(context.Background(), sources, nil, "out.mp4")
	if err != nil {
		t.Fatalf("ConcatenateVideos() unexpected error: %v", err)
	}

	if string(got) != "ABC" {
		t.Errorf("ConcatenateVideos() = %q, want %q", got, "ABC")
	}

	writes := engine.callsWithPrefix("write ")
	wantWrites := []string{"input0.mp4", "input1.mp4", "input2.mp4", "concat.txt"}
	if !reflect.DeepEqual(writes, wantWrites) {
		t.Errorf("staged %v, want %v", writes, wantWrites)
	}

	manifest := string(engine.written["concat.txt"])
	wantManifest := "file 'input0.mp4'\nfile 'input1.mp4'\nfile 'input2.mp4'"
	if manifest != wantManifest {
		t.Errorf("manifest = %q, want %q", manifest, wantManifest)
	}

	if len(engine.execs) != 1 {
		t.Fatalf("engine executed %d commands, want 1", len(engine.execs))
	}
	if !reflect.DeepEqual(engine.execs[0], video.ConcatArgs("concat.txt", "out.mp4")) {
		t.Errorf("concat args = %v", engine.execs[0])
	}

	deletes := engine.callsWithPrefix("delete ")
	wantDeletes := []string{"input0.mp4", "input1.mp4", "input2.mp4", "concat.txt", "out.mp4"}
	if !reflect.DeepEqual(deletes, wantDeletes) {
		t.Errorf("deleted %v, want %v", deletes, wantDeletes)
	}
	if engine.fileCount() != 0 {
		t.Errorf("%d staged files left behind", engine.fileCount())
	}
	assertIdle(t, svc)
}

func TestService_ConcatenateVideos_WithTrim(t *testing.T) {
	engine := newFakeEngine()
	svc, _ := newTestService(engine, &fakeLoader{})

	sources := [][]byte{[]byte("A"), []byte("B")}
	got, err := svc.ConcatenateVideos(context.Background(), sources, &video.TrimWindow{Start: 2, Duration: 4}, "out.mp4")
	if err != nil {
		t.Fatalf("ConcatenateVideos() unexpected error: %v", err)
	}

	if string(got) != "trim[2,4]:AB" {
		t.Errorf("ConcatenateVideos() = %q, want %q", got, "trim[2,4]:AB")
	}

	if len(engine.execs) != 2 {
		t.Fatalf("engine executed %d commands, want 2", len(engine.execs))
	}
	if !reflect.DeepEqual(engine.execs[0], video.ConcatArgs("concat.txt", "temp_concat.mp4")) {
		t.Errorf("concat args = %v, want output into the intermediate", engine.execs[0])
	}
	if !reflect.DeepEqual(engine.execs[1], video.TrimArgs(2, 4, "temp_concat.mp4", "out.mp4")) {
		t.Errorf("trim args = %v, want [2, 6) of the intermediate", engine.execs[1])
	}

	calls := engine.snapshotCalls()
	deletedIntermediate, readOutput := -1, -1
	for i, c := range calls {
		switch c {
		case "delete temp_concat.mp4":
			deletedIntermediate = i
		case "read out.mp4":
			readOutput = i
		}
	}
	if deletedIntermediate < 0 {
		t.Fatal("intermediate was never deleted")
	}
	if readOutput < deletedIntermediate {
		t.Errorf("intermediate deleted at call %d, after the output read at %d", deletedIntermediate, readOutput)
	}
	if engine.fileCount() != 0 {
		t.Errorf("%d staged files left behind", engine.fileCount())
	}
	assertIdle(t, svc)
}

func TestService_ConcatenateVideos_EmptyList(t *testing.T) {
	engine := newFakeEngine()
	loader := &fakeLoader{}
	svc, constructions := newTestService(engine, loader)

	_, err := svc.ConcatenateVideos(context.Background(), nil, nil, "out.mp4")
	if !errors.Is(err, video.ErrInvalidArgument) {
		t.Fatalf("ConcatenateVideos() error = %v, want ErrInvalidArgument", err)
	}

	if calls := engine.snapshotCalls(); len(calls) != 0 {
		t.Errorf("engine was used: %v", calls)
	}
	if loader.fetches() != 0 || *constructions != 0 {
		t.Errorf("engine was loaded: %d fetches, %d constructions", loader.fetches(), *constructions)
	}
	assertIdle(t, svc)
}

func TestService_ExecutionFailure_CleansUp(t *testing.T) {
	tests := []struct {
		name        string
		failExec    int
		run         func(*Service) error
		wantDeletes []string
	}{
		{
			name:     "trim",
			failExec: 0,
			run: func(s *Service) error {
				_, err := s.TrimVideo(context.Background(), []byte("SOURCE"), 1, 2, "out.mp4")
				return err
			},
			wantDeletes: []string{"input.mp4", "out.mp4"},
		},
		{
			name:     "concat step",
			failExec: 0,
			run: func(s *Service) error {
				_, err := s.ConcatenateVideos(context.Background(), [][]byte{[]byte("A"), []byte("B")}, nil, "out.mp4")
				return err
			},
			wantDeletes: []string{"input0.mp4", "input1.mp4", "concat.txt", "out.mp4"},
		},
		{
			name:     "trim step after concat",
			failExec: 1,
			run: func(s *Service) error {
				_, err := s.ConcatenateVideos(context.Background(), [][]byte{[]byte("A"), []byte("B")}, &video.TrimWindow{Start: 0, Duration: 1}, "out.mp4")
				return err
			},
			wantDeletes: []string{"input0.mp4", "input1.mp4", "concat.txt", "temp_concat.mp4", "out.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newFakeEngine()
			engine.execErr[tt.failExec] = errBoom
			svc, _ := newTestService(engine, &fakeLoader{})

			err := tt.run(svc)
			if err != errBoom {
				t.Fatalf("error = %v, want the engine error unchanged", err)
			}

			deletes := engine.callsWithPrefix("delete ")
			if !reflect.DeepEqual(deletes, tt.wantDeletes) {
				t.Errorf("deleted %v, want %v", deletes, tt.wantDeletes)
			}
			if engine.fileCount() != 0 {
				t.Errorf("%d staged files left behind", engine.fileCount())
			}
			assertIdle(t, svc)
		})
	}
}

func TestService_WriteFailure_CleansUpEarlierInputs(t *testing.T) {
	engine := newFakeEngine()
	engine.writeErr["input1.mp4"] = errBoom
	svc, _ := newTestService(engine, &fakeLoader{})

	_, err := svc.ConcatenateVideos(context.Background(), [][]byte{[]byte("A"), []byte("B"), []byte("C")}, nil, "out.mp4")
	if !errors.Is(err, video.ErrIO) || !errors.Is(err, errBoom) {
		t.Fatalf("ConcatenateVideos() error = %v, want ErrIO wrapping the write failure", err)
	}

	if len(engine.execs) != 0 {
		t.Errorf("engine executed %d commands after a staging failure", len(engine.execs))
	}
	deletes := engine.callsWithPrefix("delete ")
	if !reflect.DeepEqual(deletes, []string{"input0.mp4", "input1.mp4"}) {
		t.Errorf("deleted %v, want [input0.mp4 input1.mp4]", deletes)
	}
	if engine.fileCount() != 0 {
		t.Errorf("%d staged files left behind", engine.fileCount())
	}
	assertIdle(t, svc)
}

func TestService_MissingOutput(t *testing.T) {
	engine := newFakeEngine()
	engine.skipOutput = true
	svc, _ := newTestService(engine, &fakeLoader{})

	_, err := svc.TrimVideo(context.Background(), []byte("SOURCE"), 1, 2, "out.mp4")
	if !errors.Is(err, video.ErrNotFound) {
		t.Fatalf("TrimVideo() error = %v, want ErrNotFound", err)
	}
	assertIdle(t, svc)
}

func TestService_CleanupFailureDoesNotMaskResult(t *testing.T) {
	engine := newFakeEngine()
	engine.deleteErr["input.mp4"] = errBoom
	svc, _ := newTestService(engine, &fakeLoader{})

	got, err := svc.TrimVideo(context.Background(), []byte("SOURCE"), 1, 2, "out.mp4")
	if err != nil {
		t.Fatalf("TrimVideo() unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Error("TrimVideo() returned an empty buffer")
	}

	deletes := engine.callsWithPrefix("delete ")
	if !reflect.DeepEqual(deletes, []string{"input.mp4", "out.mp4"}) {
		t.Errorf("deleted %v, want every staged file attempted", deletes)
	}
}

func TestService_LoadFailure(t *testing.T) {
	engine := newFakeEngine()
	svc, _ := newTestService(engine, &fakeLoader{errs: []error{errBoom}})

	_, err := svc.TrimVideo(context.Background(), []byte("SOURCE"), 1, 2, "out.mp4")
	if !errors.Is(err, video.ErrLoad) || !errors.Is(err, errBoom) {
		t.Fatalf("TrimVideo() error = %v, want ErrLoad", err)
	}
	if calls := engine.snapshotCalls(); len(calls) != 0 {
		t.Errorf("engine was used after a failed load: %v", calls)
	}
	if svc.Publisher().LastError() == "" {
		t.Error("expected the load error to be published")
	}
	assertIdle(t, svc)
}

func TestService_InvalidTrimRange(t *testing.T) {
	engine := newFakeEngine()
	loader := &fakeLoader{}
	svc, _ := newTestService(engine, loader)

	_, err := svc.TrimVideo(context.Background(), []byte("SOURCE"), -1, 2, "out.mp4")
	if !errors.Is(err, video.ErrInvalidArgument) {
		t.Fatalf("TrimVideo() error = %v, want ErrInvalidArgument", err)
	}
	if loader.fetches() != 0 {
		t.Error("engine was loaded for an invalid request")
	}
}

func TestService_PublishesProgressDuringOperation(t *testing.T) {
	engine := newFakeEngine()
	svc, _ := newTestService(engine, &fakeLoader{})

	var mu sync.Mutex
	var progress []float64
	var labels []string
	unsubscribe := svc.Publisher().Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Kind {
		case EventProgress:
			progress = append(progress, ev.State.Progress)
		case EventOperation:
			labels = append(labels, ev.State.CurrentOperation)
		}
	})
	defer unsubscribe()

	_, err := svc.ConcatenateVideos(context.Background(), [][]byte{[]byte("A")}, &video.TrimWindow{Start: 0, Duration: 1}, "out.mp4")
	if err != nil {
		t.Fatalf("ConcatenateVideos() unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(progress) != 2 || progress[0] != 50 || progress[1] != 50 {
		t.Errorf("progress events = %v, want [50 50]", progress)
	}
	wantLabels := []string{LabelConcat, LabelConcatTrim, ""}
	if !reflect.DeepEqual(labels, wantLabels) {
		t.Errorf("operation labels = %q, want %q", labels, wantLabels)
	}
	assertIdle(t, svc)
}

func TestService_SerializesOperations(t *testing.T) {
	engine := newFakeEngine()
	engine.execDelay = 20 * time.Millisecond
	svc, _ := newTestService(engine, &fakeLoader{})

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.TrimVideo(context.Background(), []byte("SOURCE"), 0, 1, "out.mp4")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("TrimVideo() unexpected error: %v", err)
		}
	}
	if engine.maxInFlight != 1 {
		t.Errorf("%d commands ran at once, want 1", engine.maxInFlight)
	}
	assertIdle(t, svc)
}
