package batch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/bgclear/config"
	"github.com/chaos-io/bgclear/util"
)

var (
	white   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	cream   = color.NRGBA{R: 240, G: 230, B: 210, A: 255}
	leaf    = color.NRGBA{R: 40, G: 140, B: 60, A: 255}
	cleared = color.NRGBA{R: 255, G: 255, B: 255, A: 0}
)

// writeFixture 写一张 w×h 的底色图，中心一个前景像素
func writeFixture(t *testing.T, path string, bg color.NRGBA, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, bg)
		}
	}
	img.SetNRGBA(w/2, h/2, leaf)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	require.NoError(t, png.Encode(f, img))
}

func readNRGBA(t *testing.T, path string) *image.NRGBA {
	t.Helper()
	img, err := util.OpenImage(path)
	require.NoError(t, err)
	return util.ToNRGBA(img)
}

func TestRun_SkipsMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "a.png"), white, 3, 3)
	writeFixture(t, filepath.Join(dir, "c.png"), white, 5, 5)

	cfg := config.Butterflies()
	cfg.Dir = dir
	cfg.Files = []string{"a.png", "b.png", "c.png"}

	var out bytes.Buffer
	p := NewProcessor(cfg.BuildRule())
	p.Out = &out

	report, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	a, b, c := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"), filepath.Join(dir, "c.png")
	assert.Equal(t, []string{a, c}, report.Updated)
	assert.Equal(t, []string{b}, report.Skipped)
	assert.Equal(t, "Updated: "+a+"\nSkip (not found): "+b+"\nUpdated: "+c+"\n", out.String())

	for _, path := range []string{a, c} {
		img := readNRGBA(t, path)
		w := img.Bounds().Dx()
		assert.Equal(t, cleared, img.NRGBAAt(0, 0))
		assert.Equal(t, leaf, img.NRGBAAt(w/2, w/2))
	}
}

func TestRun_SampledNotice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel-plant.png")
	writeFixture(t, path, cream, 4, 4)

	cfg := config.Plants()
	cfg.Dir = dir
	cfg.Files = []string{"pixel-plant.png"}

	var out bytes.Buffer
	p := NewProcessor(cfg.BuildRule())
	p.Out = &out

	_, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "Updated: "+path+" (bg sample: (240, 230, 210))\n", out.String())

	img := readNRGBA(t, path)
	assert.Equal(t, cleared, img.NRGBAAt(3, 3))
	assert.Equal(t, leaf, img.NRGBAAt(2, 2))
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writeFixture(t, path, white, 2, 2)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	cfg := config.Butterflies()
	cfg.Dir = dir
	cfg.Files = []string{"a.png"}

	var out bytes.Buffer
	p := NewProcessor(cfg.BuildRule())
	p.Out = &out
	p.DryRun = true

	_, err = p.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "Would update: "+path+"\n", out.String())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_Preview(t *testing.T) {
	dir := t.TempDir()
	previewDir := filepath.Join(t.TempDir(), "previews")
	writeFixture(t, filepath.Join(dir, "big.png"), white, 40, 20)

	cfg := config.Butterflies()
	cfg.Dir = dir
	cfg.Files = []string{"big.png"}

	p := NewProcessor(cfg.BuildRule())
	p.Out = &bytes.Buffer{}
	p.PreviewDir = previewDir
	p.PreviewSize = 10

	_, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	preview := readNRGBA(t, filepath.Join(previewDir, "big.png"))
	assert.Equal(t, image.Rect(0, 0, 10, 5), preview.Bounds())
	assert.Equal(t, image.Rect(0, 0, 40, 20), readNRGBA(t, filepath.Join(dir, "big.png")).Bounds())
}

func TestRun_DecodeFailureStops(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("garbage"), 0o644))
	writeFixture(t, filepath.Join(dir, "ok.png"), white, 2, 2)
	okBefore, err := os.ReadFile(filepath.Join(dir, "ok.png"))
	require.NoError(t, err)

	cfg := config.Butterflies()
	cfg.Dir = dir
	cfg.Files = []string{"bad.png", "ok.png"}

	p := NewProcessor(cfg.BuildRule())
	p.Out = &bytes.Buffer{}

	report, err := p.Run(context.Background(), cfg)
	assert.ErrorContains(t, err, "bad.png")
	assert.Empty(t, report.Updated)

	okAfter, err := os.ReadFile(filepath.Join(dir, "ok.png"))
	require.NoError(t, err)
	assert.Equal(t, okBefore, okAfter, "files after the failure are not touched")
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.Butterflies()
	cfg.Dir = t.TempDir()

	p := NewProcessor(cfg.BuildRule())
	p.Out = &bytes.Buffer{}

	_, err := p.Run(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

// writePaletted 3×3 调色板图：背景项完全透明但保留 RGB，中心是深色前景，(1,0) 是另一种透明色
func writePaletted(t *testing.T, path string) {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 3, 3), color.Palette{
		color.NRGBA{R: 240, G: 230, B: 210, A: 0},
		color.NRGBA{R: 20, G: 20, B: 20, A: 255},
		color.NRGBA{R: 10, G: 20, B: 30, A: 0},
	})
	img.SetColorIndex(1, 1, 1)
	img.SetColorIndex(1, 0, 2)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	require.NoError(t, png.Encode(f, img))
}

func TestRun_PalettedTransparentCorners(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel-plant.png")
	writePaletted(t, path)

	cfg := config.Plants()
	cfg.Dir = dir
	cfg.Files = []string{"pixel-plant.png"}

	var out bytes.Buffer
	p := NewProcessor(cfg.BuildRule())
	p.Out = &out

	_, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "Note (already transparent): "+path+"\n"+
		"Updated: "+path+" (bg sample: (240, 230, 210))\n", out.String())

	img := readNRGBA(t, path)
	assert.Equal(t, cleared, img.NRGBAAt(0, 0))
	assert.Equal(t, cleared, img.NRGBAAt(2, 2))
	assert.Equal(t, color.NRGBA{R: 20, G: 20, B: 20, A: 255}, img.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 0}, img.NRGBAAt(1, 0))
}

func TestRun_OpaqueImageHasNoTransparencyNote(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writeFixture(t, path, white, 3, 3)

	cfg := config.Butterflies()
	cfg.Dir = dir
	cfg.Files = []string{"a.png"}

	var out bytes.Buffer
	p := NewProcessor(cfg.BuildRule())
	p.Out = &out

	_, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "already transparent")

	// 第二次运行时图片已经有透明像素
	out.Reset()
	_, err = p.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "Note (already transparent): "+path+"\nUpdated: "+path+"\n", out.String())
}
