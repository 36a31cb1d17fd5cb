// Package testutil provides testing utilities for the goplayer module.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks should be called at the start of tests that spawn goroutines.
// The check runs as the last cleanup of the test, after every cleanup registered
// later (such as shutting down the component under test).
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	t.Cleanup(func() {
		goleak.VerifyNone(t, opts...)
	})
}

// IgnoreFyneGoroutines returns goleak options to ignore known Fyne framework goroutines.
// Use this when testing components that use Fyne.
func IgnoreFyneGoroutines() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("fyne.io/fyne/v2/internal/driver/glfw.(*gLDriver).runGL.func1"),
		goleak.IgnoreTopFunction("fyne.io/fyne/v2/internal/driver/glfw.(*window).RunEventQueue"),
		goleak.IgnoreTopFunction("fyne.io/fyne/v2/internal/animation.(*Runner).runAnimations"),
		goleak.IgnoreAnyFunction("fyne.io/fyne/v2"),
	}
}
