package console

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress is a bar counting tested candidates against the keyspace size.
// Add is safe for concurrent use.
type Progress struct {
	container *mpb.Progress
	bar       *mpb.Bar
}

// NewProgress starts a bar of total candidates rendered to w
func NewProgress(w io.Writer, total uint64) *Progress {
	container := mpb.New(mpb.WithOutput(w), mpb.WithWidth(60))
	bar := container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("candidates "),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
		),
	)
	return &Progress{container: container, bar: bar}
}

// Add records delta more candidates tested
func (p *Progress) Add(delta uint64) {
	p.bar.IncrInt64(int64(delta))
}

// Finish stops the bar and waits for its last render. An early stop leaves
// the bar where it is.
func (p *Progress) Finish() {
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()
}
