package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var supported = []string{"5.4.2", "6.0.2"}

func TestEnter(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		want      Decision
		wantState State
	}{
		{name: "first supported version", version: "5.4.2", want: Proceed, wantState: Ran},
		{name: "second supported version", version: "6.0.2", want: Proceed, wantState: Ran},
		{name: "unsupported version", version: "5.4.1", want: Abort, wantState: NotRun},
		{name: "prefix is not a match", version: "5.4", want: Abort, wantState: NotRun},
		{name: "suffix is not a match", version: "6.0.2-dev", want: Abort, wantState: NotRun},
		{name: "empty version", version: "", want: Abort, wantState: NotRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(supported)
			assert.Equal(t, tt.want, g.Enter(tt.version))
			assert.Equal(t, tt.wantState, g.State())
		})
	}
}

func TestEnter_AlreadyRan(t *testing.T) {
	g := New(supported)

	assert.Equal(t, Proceed, g.Enter("5.4.2"))
	assert.Equal(t, AlreadyRan, g.Enter("5.4.2"))
	// Once ran, even an unsupported version is a no-op success.
	assert.Equal(t, AlreadyRan, g.Enter("1.0.0"))
	assert.Equal(t, Ran, g.State())
}

func TestEnter_AbortThenProceed(t *testing.T) {
	g := New(supported)

	assert.Equal(t, Abort, g.Enter("4.0.0"))
	assert.Equal(t, Proceed, g.Enter("6.0.2"))
}

func TestEnter_ConcurrentCallersProceedOnce(t *testing.T) {
	g := New(supported)

	const callers = 32
	var wg sync.WaitGroup
	decisions := make(chan Decision, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decisions <- g.Enter("6.0.2")
		}()
	}
	wg.Wait()
	close(decisions)

	proceeded := 0
	for d := range decisions {
		if d == Proceed {
			proceeded++
		} else {
			assert.Equal(t, AlreadyRan, d)
		}
	}
	assert.Equal(t, 1, proceeded)
}

func TestMarkReported(t *testing.T) {
	g := New(supported)

	assert.False(t, g.MarkReported(), "nothing to report before a run")

	g.Enter("5.4.2")
	assert.True(t, g.MarkReported())
	assert.False(t, g.MarkReported())
}

func TestSupportedIsCopied(t *testing.T) {
	versions := []string{"1.0.0"}
	g := New(versions)
	versions[0] = "2.0.0"

	assert.Equal(t, []string{"1.0.0"}, g.Supported())
	assert.Equal(t, Proceed, g.Enter("1.0.0"))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "proceed", Proceed.String())
	assert.Equal(t, "abort", Abort.String())
	assert.Equal(t, "already-ran", AlreadyRan.String())
	assert.Equal(t, "ran", Ran.String())
	assert.Equal(t, "not-run", NotRun.String())
}
