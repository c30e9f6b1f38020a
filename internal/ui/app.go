// Package ui is the fyne desktop front end for a board session.
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/golang/glog"

	"github.com/localboard/sketchrelay/internal/client"
	"github.com/localboard/sketchrelay/internal/export"
)

type App struct {
	fyne  fyne.App
	board atomic.Pointer[window]
}

type window struct {
	win    fyne.Window
	view   *BoardView
	status *widget.Label
	share  string
	notice string
}

func NewApp() *App {
	return &App{fyne: app.NewWithID("io.github.localboard.sketchrelay")}
}

// Changed is a client.Options.OnChange hook. It may be called from any
// goroutine, before or after Run.
func (a *App) Changed(f *client.Frame) {
	w := a.board.Load()
	if w == nil {
		return
	}
	fyne.Do(func() {
		w.view.Show(f)
		w.refreshStatus(f)
	})
}

// Run opens the board window and blocks until it is closed or ctx is done.
// Notices from ctl show in the status bar.
func (a *App) Run(ctx context.Context, ctl Controls, title, share string) {
	w := &window{
		win:    a.fyne.NewWindow(title),
		view:   NewBoardView(ctl),
		status: widget.NewLabel(""),
		share:  share,
	}
	w.win.Resize(fyne.NewSize(1024, 768))

	toolbar := newToolbar(ctl, toolbarActions{
		export: func() { w.exportPDF(ctl) },
		share: func() {
			if share != "" {
				a.fyne.Clipboard().SetContent(share)
			}
		},
	})
	w.win.SetContent(container.NewBorder(toolbar, w.status, nil, nil, w.view))
	w.refreshStatus(ctl.Frame())
	a.board.Store(w)

	go func() {
		for {
			select {
			case <-ctx.Done():
				fyne.Do(a.fyne.Quit)
				return
			case n := <-ctl.Notices():
				fyne.Do(func() {
					w.notice = n.Error()
					w.refreshStatus(ctl.Frame())
				})
			}
		}
	}()

	w.win.ShowAndRun()
}

func (w *window) refreshStatus(f *client.Frame) {
	if f == nil {
		return
	}
	conn := "offline"
	if f.Connected {
		conn = "connected"
	}
	text := fmt.Sprintf("%s | %s | %d strokes", conn, f.Tool, len(f.Committed))
	if w.share != "" {
		text += " | share " + w.share
	}
	if w.notice != "" {
		text += " | " + w.notice
	}
	w.status.SetText(text)
}

func (w *window) exportPDF(ctl Controls) {
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		if writer == nil {
			return
		}
		defer func() {
			if err := writer.Close(); err != nil {
				glog.Errorf("[ui]close %s: %v\n", writer.URI(), err)
			}
		}()
		strokes := ctl.Frame().Committed
		if err := export.Write(writer, strokes); err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		glog.Infof("[ui]exported %d strokes to %s\n", len(strokes), writer.URI())
	}, w.win)
}
