// Package viewer shows the images of an experiment run in a fyne window.
package viewer

import (
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// captionHeight is the room left under every image for its name.
const captionHeight = 40

// Tile returns an image scaled to fit a size × size square with the file
// name underneath.
func Tile(path string, size float32) fyne.CanvasObject {
	img := canvas.NewImageFromFile(path)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(size, size))

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	label := widget.NewLabel(name)
	label.Alignment = fyne.TextAlignCenter
	return container.NewBorder(nil, label, nil, nil, img)
}

// Content tiles the images in a scrollable grid.
func Content(paths []string, size float32) fyne.CanvasObject {
	tiles := make([]fyne.CanvasObject, len(paths))
	for i, p := range paths {
		tiles[i] = Tile(p, size)
	}
	grid := container.NewGridWrap(fyne.NewSize(size, size+captionHeight), tiles...)
	return container.NewVScroll(grid)
}

// NewWindow returns a window of app a showing the images, sized for up to
// three columns of two rows.
func NewWindow(a fyne.App, title string, paths []string, size int) fyne.Window {
	w := a.NewWindow(title)
	w.SetPadded(false)
	w.SetContent(Content(paths, float32(size)))

	cols := len(paths)
	if cols > 3 {
		cols = 3
	}
	if cols < 1 {
		cols = 1
	}
	rows := 1
	if len(paths) > 3 {
		rows = 2
	}
	w.Resize(fyne.NewSize(float32(cols*size), float32(rows*(size+captionHeight))))
	return w
}

// Show opens the viewer and blocks until its window is closed.
func Show(title string, paths []string, size int) {
	// We supply an ID (hopefully unique) because we may need to use the preferences API
	a := app.NewWithID("com.gmail.ok.anderson.bob.magexp")
	w := NewWindow(a, title, paths, size)
	w.CenterOnScreen()
	w.ShowAndRun()
}
