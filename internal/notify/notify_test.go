package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToasterQueuesBehindActive(t *testing.T) {
	tr := NewToaster()

	tr.ShowMessage("first")
	tr.ShowMessage("second")

	active := tr.Active()
	assert.Equal(t, []Toast{{Text: "first"}}, active)

	tr.Dismiss()
	assert.Equal(t, []Toast{{Text: "second"}}, tr.Active())

	tr.Dismiss()
	assert.Empty(t, tr.Active())
}

func TestToasterDedupesPendingText(t *testing.T) {
	tr := NewToaster()

	tr.ShowMessage("same")
	tr.ShowMessage("same")
	tr.ShowMessage("other")
	tr.ShowMessage("other")

	assert.Len(t, tr.Active(), 1)
	tr.Dismiss()
	assert.Equal(t, []Toast{{Text: "other"}}, tr.Active())
	tr.Dismiss()
	assert.Empty(t, tr.Active())

	// Once gone, the same text may toast again.
	tr.ShowMessage("same")
	assert.Len(t, tr.Active(), 1)
}

func TestToasterAutohideScalesWithLength(t *testing.T) {
	tr := NewToaster()

	tr.ShowMessage("short")
	assert.Equal(t, 3*time.Second, tr.AutohideTimeout())

	tr.ShowMessage("one two three four five six seven eight nine ten eleven twelve " +
		"thirteen fourteen fifteen sixteen")
	assert.Equal(t, 8*time.Second, tr.AutohideTimeout())
}

func TestCounter(t *testing.T) {
	c := NewCounter()
	assert.False(t, c.Loading())

	c.StartRequest()
	c.StartRequest()
	assert.True(t, c.Loading())
	assert.Equal(t, 2, c.Requests())

	c.EndRequest()
	assert.True(t, c.Loading())
	c.EndRequest()
	assert.False(t, c.Loading())

	c.StartPage()
	assert.True(t, c.Loading())
	assert.Equal(t, 0, c.Requests())
	c.EndPage()
	assert.False(t, c.Loading())
}
