package viewer_test

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/magexp/internal/viewer"
	"github.com/bob-anderson-ok/magexp/quickplot"
)

func writeImages(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.SetGray(3, 3, color.Gray{Y: 255})
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n+".png")
		require.NoError(t, quickplot.SavePNG(paths[i], img))
	}
	return paths
}

func TestTile(t *testing.T) {
	test.NewTempApp(t)
	paths := writeImages(t, "ltem_phase")

	tile := viewer.Tile(paths[0], 100)
	c, ok := tile.(*fyne.Container)
	require.True(t, ok)
	require.Len(t, c.Objects, 2)

	img, ok := c.Objects[0].(*canvas.Image)
	require.True(t, ok)
	assert.Equal(t, canvas.ImageFillContain, img.FillMode)
	assert.Equal(t, paths[0], img.File)

	label, ok := c.Objects[1].(*widget.Label)
	require.True(t, ok)
	assert.Equal(t, "ltem_phase", label.Text)
}

func TestContent(t *testing.T) {
	test.NewTempApp(t)
	paths := writeImages(t, "a", "b", "c", "d")

	scroll, ok := viewer.Content(paths, 120).(*container.Scroll)
	require.True(t, ok)
	grid, ok := scroll.Content.(*fyne.Container)
	require.True(t, ok)
	assert.Len(t, grid.Objects, 4)
}

func TestNewWindow(t *testing.T) {
	a := test.NewTempApp(t)
	paths := writeImages(t, "a", "b", "c", "d", "e")

	w := viewer.NewWindow(a, "helix", paths, 200)
	defer w.Close()
	assert.Equal(t, "helix", w.Title())
	require.NotNil(t, w.Content())

	empty := viewer.NewWindow(a, "nothing", nil, 200)
	defer empty.Close()
	require.NotNil(t, empty.Content())
}
