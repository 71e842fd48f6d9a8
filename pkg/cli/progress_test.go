package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "cases")

	progress.Start(4)
	progress.Step(false)
	progress.Step(true)
	progress.Step(false)
	progress.Step(false)
	progress.Finish()

	out := buf.String()
	if !strings.Contains(out, "4/4 cases, 1 failed") {
		t.Errorf("output %q is missing the final counts", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish() should end the line")
	}
}

func TestSimpleProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "")

	progress.Start(0)
	progress.Step(false)
	progress.Finish()

	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing for an empty run", buf.String())
	}
	if done, _ := progress.Counts(); done != 0 {
		t.Errorf("done = %d, want 0", done)
	}
}

func TestSimpleProgress_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "cases")

	progress.Start(10)
	progress.Error(errors.New("suite unreadable"))

	if !strings.Contains(buf.String(), "error: suite unreadable") {
		t.Errorf("output %q is missing the error", buf.String())
	}
}

func TestSimpleProgress_Concurrent(t *testing.T) {
	progress := NewProgressReporter(&bytes.Buffer{}, "cases")
	progress.Start(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				progress.Step(j == i)
			}
		}(i)
	}
	wg.Wait()
	progress.Finish()

	done, failed := progress.Counts()
	if done != 100 || failed != 10 {
		t.Errorf("Counts() = (%d, %d), want (100, 10)", done, failed)
	}
}
