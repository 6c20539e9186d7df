package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/meshscan/logging"
)

func TestWatchAndRerun(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "mesh.ply")
	other := filepath.Join(dir, "other.txt")
	test.That(t, os.WriteFile(watched, []byte("a"), 0o600), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchAndRerun(ctx, []string{watched, ""}, 10*time.Millisecond, logging.NewTestLogger(t), func() error {
			select {
			case runs <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// keep poking until the watcher is up
	deadline := time.After(10 * time.Second)
	for got := false; !got; {
		test.That(t, os.WriteFile(other, []byte("b"), 0o600), test.ShouldBeNil)
		test.That(t, os.WriteFile(watched, []byte("c"), 0o600), test.ShouldBeNil)
		select {
		case <-runs:
			got = true
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("watcher never reran")
		}
	}

	cancel()
	test.That(t, <-done, test.ShouldBeNil)
}
