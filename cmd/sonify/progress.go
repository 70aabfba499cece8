package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/pipeline"
)

// newProgressObserver returns a progress bar observer when w is a terminal,
// and nil otherwise so that progress is only logged.
func newProgressObserver(w io.Writer) pipeline.Observer {
	if !isTerminal(w) {
		return nil
	}
	return &barObserver{w: w}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// barObserver draws one progress bar per folder download.
type barObserver struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (o *barObserver) FolderStarted(folder domain.RemoteFolder, files int) {
	o.bar = progressbar.NewOptions(files,
		progressbar.OptionSetWriter(o.w),
		progressbar.OptionSetDescription(folder.Info.FolderPart()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetWidth(30),
	)
}

func (o *barObserver) Progress(folder domain.RemoteFolder, p domain.Progress) {
	if o.bar == nil {
		return
	}
	o.bar.Describe(progressDescription(folder, p))
	_ = o.bar.Set(p.Completed)
}

func (o *barObserver) FolderFinished(pipeline.FolderReport) {
	if o.bar == nil {
		return
	}
	_ = o.bar.Finish()
	fmt.Fprintln(o.w)
	o.bar = nil
}

func progressDescription(folder domain.RemoteFolder, p domain.Progress) string {
	rate := uint64(p.ThroughputMBps * (1 << 20))
	return fmt.Sprintf("%s %s/s eta %s",
		folder.Info.FolderPart(),
		humanize.IBytes(rate),
		p.Remaining.Round(time.Second),
	)
}
