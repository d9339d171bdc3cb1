// Package progress shows rotating "please wait" text while a generation runs.
// It has its own timer and knows nothing about the remote operation.
package progress

import (
	"context"
	"fmt"
	"io"
	"time"
)

// DefaultEvery is how long each message stays on screen.
const DefaultEvery = 5 * time.Second

var Messages = []string{
	"Warming up the AI's creative circuits...",
	"Gathering digital stardust...",
	"Teaching pixels to dance...",
	"This can take a few minutes, please wait...",
	"Rendering your masterpiece frame by frame...",
	"Almost there, adding the final touches...",
}

// Rotate writes Messages to w in order, one every interval, wrapping around
// until ctx is done. The line is cleared before returning.
func Rotate(ctx context.Context, w io.Writer, every time.Duration) {
	if every <= 0 {
		every = DefaultEvery
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	i := 0
	show := func() {
		fmt.Fprintf(w, "\r\033[K%s", Messages[i%len(Messages)])
		i++
	}
	show()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(w, "\r\033[K")
			return
		case <-ticker.C:
			show()
		}
	}
}
