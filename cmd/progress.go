package cmd

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress wraps schollz/progressbar with an opt-out (nil bar). Set is safe
// to call from the pipeline's worker goroutines.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(total int, enabled bool) *progress {
	if !enabled {
		return &progress{}
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(250*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
	)
	return &progress{bar: bar}
}

func (p *progress) set(done int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Set(done)
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
