//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"clipmaker/cmd"
	"clipmaker/domain/video"

	"github.com/cucumber/godog"
)

type videoContext struct {
	stack  *videoStack
	files  *memFiles
	output *bytes.Buffer
	err    error
}

var SharedVideoContext = &videoContext{}

func InitializeVideoScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedVideoContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.stack = newVideoStack()
		testCtx.files = newMemFiles()
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.Step(`^a source video "([^"]*)" containing "([^"]*)"$`, testCtx.aSourceVideoContaining)
	ctx.Step(`^the engine resources are unavailable$`, testCtx.theEngineResourcesAreUnavailable)
	ctx.Step(`^the engine resources become available$`, testCtx.theEngineResourcesBecomeAvailable)
	ctx.Step(`^the engine fails every command with "([^"]*)"$`, testCtx.theEngineFailsEveryCommandWith)
	ctx.Step(`^I load the engine$`, testCtx.iLoadTheEngine)
	ctx.Step(`^(\d+) callers load the engine at the same time$`, testCtx.callersLoadTheEngineAtTheSameTime)
	ctx.Step(`^I trim "([^"]*)" from "([^"]*)" for "([^"]*)" into "([^"]*)"$`, testCtx.iTrimFromForInto)
	ctx.Step(`^I trim "([^"]*)" from "([^"]*)" to "([^"]*)" into "([^"]*)"$`, testCtx.iTrimFromToInto)
	ctx.Step(`^I concatenate "([^"]*)" into "([^"]*)"$`, testCtx.iConcatenateInto)
	ctx.Step(`^I concatenate "([^"]*)" into "([^"]*)" trimmed from "([^"]*)" for "([^"]*)"$`, testCtx.iConcatenateIntoTrimmed)
	ctx.Step(`^I concatenate nothing into "([^"]*)"$`, testCtx.iConcatenateNothingInto)
	ctx.Step(`^the engine should be loaded$`, testCtx.theEngineShouldBeLoaded)
	ctx.Step(`^the engine should not be loaded$`, testCtx.theEngineShouldNotBeLoaded)
	ctx.Step(`^the engine should have been initialized (\d+) times?$`, testCtx.theEngineShouldHaveBeenInitializedTimes)
	ctx.Step(`^the resources should have been fetched (\d+) times?$`, testCtx.theResourcesShouldHaveBeenFetchedTimes)
	ctx.Step(`^the last engine error should mention "([^"]*)"$`, testCtx.theLastEngineErrorShouldMention)
	ctx.Step(`^the last engine error should be empty$`, testCtx.theLastEngineErrorShouldBeEmpty)
	ctx.Step(`^the saved clip "([^"]*)" should contain "([^"]*)"$`, testCtx.theSavedClipShouldContain)
	ctx.Step(`^no clip should be saved$`, testCtx.noClipShouldBeSaved)
	ctx.Step(`^the engine should have run (\d+) commands?$`, testCtx.theEngineShouldHaveRunCommands)
	ctx.Step(`^the engine should not have run any command$`, testCtx.theEngineShouldNotHaveRunAnyCommand)
	ctx.Step(`^command (\d+) should be "([^"]*)"$`, testCtx.commandShouldBe)
	ctx.Step(`^no staged files should remain$`, testCtx.noStagedFilesShouldRemain)
	ctx.Step(`^no operation should be in progress$`, testCtx.noOperationShouldBeInProgress)
	ctx.Step(`^the video command should fail with "([^"]*)"$`, testCtx.theVideoCommandShouldFailWith)
	ctx.Step(`^the video command should fail as an invalid argument$`, testCtx.theVideoCommandShouldFailAsAnInvalidArgument)
	ctx.Step(`^the video command should fail as an execution error$`, testCtx.theVideoCommandShouldFailAsAnExecutionError)
	ctx.Step(`^the video command should succeed$`, testCtx.theVideoCommandShouldSucceed)
	ctx.Step(`^the video output should contain "([^"]*)"$`, testCtx.theVideoOutputShouldContain)
}

func (v *videoContext) aSourceVideoContaining(path, content string) error {
	v.files.files[path] = []byte(content)
	return nil
}

func (v *videoContext) theEngineResourcesAreUnavailable() error {
	v.stack.loader.mu.Lock()
	defer v.stack.loader.mu.Unlock()
	v.stack.loader.available = false
	return nil
}

func (v *videoContext) theEngineResourcesBecomeAvailable() error {
	v.stack.loader.mu.Lock()
	defer v.stack.loader.mu.Unlock()
	v.stack.loader.available = true
	return nil
}

func (v *videoContext) theEngineFailsEveryCommandWith(message string) error {
	v.stack.engine.mu.Lock()
	defer v.stack.engine.mu.Unlock()
	v.stack.engine.execErr = errors.New(message)
	return nil
}

func (v *videoContext) iLoadTheEngine() error {
	v.err = cmd.RunLoadWithDependencies(context.Background(), v.stack.service, v.output)
	return nil
}

func (v *videoContext) callersLoadTheEngineAtTheSameTime(n int) error {
	gate := make(chan struct{})
	v.stack.loader.mu.Lock()
	v.stack.loader.gate = gate
	v.stack.loader.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = v.stack.service.EnsureLoaded(context.Background())
		}(i)
	}

	// wait for the first caller to reach the loader, then let it through
	for {
		v.stack.loader.mu.Lock()
		calls := v.stack.loader.calls
		v.stack.loader.mu.Unlock()
		if calls > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(gate)
	wg.Wait()

	v.err = errors.Join(errs...)
	return nil
}

func (v *videoContext) iTrimFromForInto(path, start, duration, output string) error {
	v.err = cmd.RunTrimWithDependencies(context.Background(), v.stack.service, v.files, []video.ClipSaver{v.files},
		cmd.TrimInput{SourcePath: path, Start: start, Duration: duration, OutputName: output}, v.output)
	return nil
}

func (v *videoContext) iTrimFromToInto(path, start, end, output string) error {
	v.err = cmd.RunTrimWithDependencies(context.Background(), v.stack.service, v.files, []video.ClipSaver{v.files},
		cmd.TrimInput{SourcePath: path, Start: start, End: end, OutputName: output}, v.output)
	return nil
}

func (v *videoContext) iConcatenateInto(paths, output string) error {
	v.err = cmd.RunConcatWithDependencies(context.Background(), v.stack.service, v.files, []video.ClipSaver{v.files},
		cmd.ConcatInput{SourcePaths: splitList(paths), OutputName: output}, v.output)
	return nil
}

func (v *videoContext) iConcatenateIntoTrimmed(paths, output, start, duration string) error {
	v.err = cmd.RunConcatWithDependencies(context.Background(), v.stack.service, v.files, []video.ClipSaver{v.files},
		cmd.ConcatInput{SourcePaths: splitList(paths), Start: start, Duration: duration, OutputName: output}, v.output)
	return nil
}

func (v *videoContext) iConcatenateNothingInto(output string) error {
	v.err = cmd.RunConcatWithDependencies(context.Background(), v.stack.service, v.files, []video.ClipSaver{v.files},
		cmd.ConcatInput{OutputName: output}, v.output)
	return nil
}

func (v *videoContext) theEngineShouldBeLoaded() error {
	if !v.stack.service.Publisher().Loaded() {
		return fmt.Errorf("expected engine to be loaded")
	}
	if v.stack.service.Publisher().Loading() {
		return fmt.Errorf("expected loading flag to be cleared")
	}
	return nil
}

func (v *videoContext) theEngineShouldNotBeLoaded() error {
	if v.stack.service.Publisher().Loaded() {
		return fmt.Errorf("expected engine not to be loaded")
	}
	if v.stack.service.Publisher().Loading() {
		return fmt.Errorf("expected loading flag to be cleared")
	}
	return nil
}

func (v *videoContext) theEngineShouldHaveBeenInitializedTimes(n int) error {
	v.stack.engine.mu.Lock()
	defer v.stack.engine.mu.Unlock()
	if v.stack.engine.loadHits != n {
		return fmt.Errorf("expected %d initializations, got %d", n, v.stack.engine.loadHits)
	}
	return nil
}

func (v *videoContext) theResourcesShouldHaveBeenFetchedTimes(n int) error {
	v.stack.loader.mu.Lock()
	defer v.stack.loader.mu.Unlock()
	if v.stack.loader.calls != n {
		return fmt.Errorf("expected %d fetches, got %d", n, v.stack.loader.calls)
	}
	return nil
}

func (v *videoContext) theLastEngineErrorShouldMention(text string) error {
	last := v.stack.service.Publisher().LastError()
	if !strings.Contains(last, text) {
		return fmt.Errorf("expected last error to mention %q, got %q", text, last)
	}
	return nil
}

func (v *videoContext) theLastEngineErrorShouldBeEmpty() error {
	if last := v.stack.service.Publisher().LastError(); last != "" {
		return fmt.Errorf("expected no last error, got %q", last)
	}
	return nil
}

func (v *videoContext) theSavedClipShouldContain(name, content string) error {
	data, err := v.files.Read("clips/" + name)
	if err != nil {
		return fmt.Errorf("clip %s was not saved: %w", name, err)
	}
	if string(data) != content {
		return fmt.Errorf("expected clip %s to contain %q, got %q", name, content, string(data))
	}
	return nil
}

func (v *videoContext) noClipShouldBeSaved() error {
	v.files.mu.Lock()
	defer v.files.mu.Unlock()
	for name := range v.files.files {
		if strings.HasPrefix(name, "clips/") {
			return fmt.Errorf("unexpected saved clip %s", name)
		}
	}
	return nil
}

func (v *videoContext) theEngineShouldHaveRunCommands(n int) error {
	v.stack.engine.mu.Lock()
	defer v.stack.engine.mu.Unlock()
	if len(v.stack.engine.execs) != n {
		return fmt.Errorf("expected %d commands, got %d: %v", n, len(v.stack.engine.execs), v.stack.engine.execs)
	}
	return nil
}

func (v *videoContext) theEngineShouldNotHaveRunAnyCommand() error {
	return v.theEngineShouldHaveRunCommands(0)
}

func (v *videoContext) commandShouldBe(index int, expected string) error {
	v.stack.engine.mu.Lock()
	defer v.stack.engine.mu.Unlock()
	if index < 1 || index > len(v.stack.engine.execs) {
		return fmt.Errorf("command %d was not run", index)
	}
	got := strings.Join(v.stack.engine.execs[index-1], " ")
	if got != expected {
		return fmt.Errorf("expected command %d to be %q, got %q", index, expected, got)
	}
	return nil
}

func (v *videoContext) noStagedFilesShouldRemain() error {
	if names := v.stack.engine.stagedNames(); len(names) > 0 {
		return fmt.Errorf("staged files remain: %v", names)
	}
	return nil
}

func (v *videoContext) noOperationShouldBeInProgress() error {
	p := v.stack.service.Publisher()
	if label, ok := p.CurrentOperation(); ok {
		return fmt.Errorf("expected no current operation, got %q", label)
	}
	if p.Progress() != 0 {
		return fmt.Errorf("expected progress 0, got %v", p.Progress())
	}
	return nil
}

func (v *videoContext) theVideoCommandShouldFailWith(text string) error {
	if v.err == nil {
		return fmt.Errorf("expected an error containing %q", text)
	}
	if !strings.Contains(v.err.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %q", text, v.err.Error())
	}
	return nil
}

func (v *videoContext) theVideoCommandShouldFailAsAnInvalidArgument() error {
	if !errors.Is(v.err, video.ErrInvalidArgument) {
		return fmt.Errorf("expected an invalid argument error, got %v", v.err)
	}
	return nil
}

func (v *videoContext) theVideoCommandShouldFailAsAnExecutionError() error {
	if !errors.Is(v.err, video.ErrExecution) {
		return fmt.Errorf("expected an execution error, got %v", v.err)
	}
	return nil
}

func (v *videoContext) theVideoCommandShouldSucceed() error {
	if v.err != nil {
		return fmt.Errorf("expected success, got %v", v.err)
	}
	return nil
}

func (v *videoContext) theVideoOutputShouldContain(text string) error {
	if !strings.Contains(v.output.String(), text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, v.output.String())
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
