package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestControl_Defaults(t *testing.T) {
	c := NewControl(time.Second)
	assert.True(t, c.Capturing())
	assert.False(t, c.Paused())
	assert.False(t, c.Automatic())
	assert.Zero(t, c.CaseIndex())
}

func TestControl_CaptureDebounce(t *testing.T) {
	c := NewControl(50 * time.Millisecond)

	applied, on := c.ToggleCapture()
	assert.True(t, applied)
	assert.False(t, on)

	applied, on = c.ToggleCapture()
	assert.False(t, applied, "second toggle inside the window is ignored")
	assert.False(t, on)

	time.Sleep(60 * time.Millisecond)
	applied, on = c.ToggleCapture()
	assert.True(t, applied)
	assert.True(t, on)
}

func TestControl_Toggles(t *testing.T) {
	c := NewControl(0)
	assert.True(t, c.TogglePause())
	assert.False(t, c.TogglePause())
	assert.True(t, c.ToggleAutomatic())
	assert.False(t, c.ToggleAutomatic())

	c.SetCaseIndex(2)
	assert.Equal(t, 3, c.AdvanceCase())
	assert.Equal(t, 3, c.CaseIndex())
}
