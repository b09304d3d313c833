package util

import (
	"errors"
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// ToNRGBA 转为 NRGBA（非预乘 alpha），已经是 NRGBA 的直接返回
// 调色板和 16 位 NRGBA 逐像素拷贝，alpha=0 的像素保留原来的 RGB
// 其它格式走 draw.Src，会经过预乘 alpha
func ToNRGBA(img image.Image) *image.NRGBA {
	switch src := img.(type) {
	case *image.NRGBA:
		return src
	case *image.Paletted:
		return palettedToNRGBA(src)
	case *image.NRGBA64:
		return nrgba64ToNRGBA(src)
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

func palettedToNRGBA(src *image.Paletted) *image.NRGBA {
	pal := make([]color.NRGBA, len(src.Palette))
	for i, c := range src.Palette {
		pal[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}

	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		si := y * src.Stride
		di := y * dst.Stride
		for x := 0; x < b.Dx(); x++ {
			// 越界索引当作透明黑
			var c color.NRGBA
			if idx := int(src.Pix[si+x]); idx < len(pal) {
				c = pal[idx]
			}
			d := dst.Pix[di+x*4 : di+x*4+4 : di+x*4+4]
			d[0], d[1], d[2], d[3] = c.R, c.G, c.B, c.A
		}
	}
	return dst
}

// nrgba64ToNRGBA 每个通道取高 8 位
func nrgba64ToNRGBA(src *image.NRGBA64) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		si := y * src.Stride
		di := y * dst.Stride
		for x := 0; x < b.Dx(); x++ {
			for ch := 0; ch < 4; ch++ {
				dst.Pix[di+x*4+ch] = src.Pix[si+x*8+ch*2]
			}
		}
	}
	return dst
}

// HasUsefulAlpha 检查 alpha 通道是否 真的包含透明信息
// 只要存在非 255（非完全不透明），就认为“已有抠图”
func HasUsefulAlpha(img *image.NRGBA) bool {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := y * img.Stride
		for x := 0; x < b.Dx(); x++ {
			if img.Pix[row+x*4+3] != 255 {
				return true
			}
		}
	}
	return false
}

// ErrNoForeground 整张图都是透明的
var ErrNoForeground = errors.New("no foreground pixels")

// AlphaBBox 从 alpha 通道计算主体 bounding box
// 把 alpha > threshold * 255 的像素当作“主体”，返回的坐标与 img.Bounds() 同一坐标系
func AlphaBBox(img *image.NRGBA, threshold float64) (image.Rectangle, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	th := uint8(threshold * 255)

	minX, minY := w, h
	maxX, maxY := 0, 0
	found := false

	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			if img.Pix[row+x*4+3] <= th {
				continue
			}
			found = true
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if !found {
		return image.Rectangle{}, ErrNoForeground
	}

	return image.Rect(minX, minY, maxX+1, maxY+1).Add(b.Min), nil
}

// ResizeWithinMax 缩放（最长边 <= maxSize），本来就不大的图直接返回
func ResizeWithinMax(img *image.NRGBA, maxSize int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)

	if longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
	return ToNRGBA(resized)
}
