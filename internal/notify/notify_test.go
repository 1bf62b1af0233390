package notify

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestConsole_Streams(t *testing.T) {
	var out, errw bytes.Buffer
	c := NewConsole(&out, &errw, nil)

	c.Success("Exported", "guide.html")
	c.Warn("Guide", "image missing")
	c.Error("notes.md", "permission denied")

	gotOut := ansi.Strip(out.String())
	if !strings.Contains(gotOut, "Exported") || !strings.Contains(gotOut, "guide.html") {
		t.Errorf("unexpected stdout %q", gotOut)
	}
	gotErr := ansi.Strip(errw.String())
	for _, want := range []string{"Guide", "image missing", "notes.md", "permission denied"} {
		if !strings.Contains(gotErr, want) {
			t.Errorf("expected %q on stderr, got %q", want, gotErr)
		}
	}
	if strings.Contains(gotOut, "image missing") {
		t.Error("warning written to stdout")
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(3)
		go func() { defer wg.Done(); r.Success("s", "") }()
		go func() { defer wg.Done(); r.Warn("w", "") }()
		go func() { defer wg.Done(); r.Error("e", "") }()
	}
	wg.Wait()

	if n := len(r.All()); n != 30 {
		t.Errorf("expected 30 notifications, got %d", n)
	}
	for _, lvl := range []Level{LevelSuccess, LevelWarn, LevelError} {
		if n := r.Count(lvl); n != 10 {
			t.Errorf("expected 10 %s notifications, got %d", lvl, n)
		}
	}
}

func TestRecorder_Limit(t *testing.T) {
	r := &Recorder{Limit: 2}
	r.Success("a", "")
	r.Success("b", "")
	r.Success("c", "")

	all := r.All()
	if len(all) != 2 || all[0].Title != "b" || all[1].Title != "c" {
		t.Errorf("expected newest two notifications, got %+v", all)
	}
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, b}.Warn("t", "m")
	if a.Count(LevelWarn) != 1 || b.Count(LevelWarn) != 1 {
		t.Error("expected both recorders to receive the warning")
	}
}
