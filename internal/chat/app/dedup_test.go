package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupFilter_FirstSightingOnly(t *testing.T) {
	f := NewDedupFilter(10 * time.Minute)

	assert.True(t, f.ShouldProcess("m1"))
	assert.False(t, f.ShouldProcess("m1"))
	assert.True(t, f.ShouldProcess("m2"))
	assert.Equal(t, 2, f.Size())
}

func TestDedupFilter_EmptyIDNeverProcessed(t *testing.T) {
	f := NewDedupFilter(10 * time.Minute)

	assert.False(t, f.ShouldProcess(""))
	assert.Equal(t, 0, f.Size())
}

func TestDedupFilter_BulkClear(t *testing.T) {
	f := NewDedupFilter(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.ShouldProcess("m1")
	f.ShouldProcess("m2")
	f.Start(ctx)

	assert.Eventually(t, func() bool {
		return f.Size() == 0
	}, time.Second, 10*time.Millisecond)

	// after the clear a retry counts as new again
	assert.True(t, f.ShouldProcess("m1"))
}
