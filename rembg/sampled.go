package rembg

import (
	"fmt"
	"image"
)

// DefaultTolerance 与采样背景色的最大 Chebyshev 距离
const DefaultTolerance = 35

// RGB 参考背景色
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// Chebyshev 按 L∞ 距离判断背景：max(|r-R|, |g-G|, |b-B|) <= Tolerance
type Chebyshev struct {
	Ref       RGB
	Tolerance uint8
}

func (c Chebyshev) IsBackground(r, g, b uint8) bool {
	return distance(RGB{r, g, b}, c.Ref) <= int(c.Tolerance)
}

func (c Chebyshev) String() string {
	return fmt.Sprintf("bg sample: %s", c.Ref)
}

// Sampled 采样背景规则：每张图片取四角平均色作为参考色
type Sampled struct {
	Tolerance uint8
}

func NewSampled(tolerance uint8) *Sampled {
	return &Sampled{Tolerance: tolerance}
}

// Classifier 参考色在这里计算一次，之后整张图共用
func (s *Sampled) Classifier(img *image.NRGBA) Classifier {
	return Chebyshev{Ref: ReferenceColor(img), Tolerance: s.Tolerance}
}

// ReferenceColor 四角像素 RGB 的整数平均值（截断），忽略 alpha
// 四角颜色不一致时（比如主体碰到了角落），结果可能不对应任何真实背景，这是已知限制
func ReferenceColor(img *image.NRGBA) RGB {
	var r, g, b int
	for _, c := range corners(img) {
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
	}
	return RGB{R: uint8(r / 4), G: uint8(g / 4), B: uint8(b / 4)}
}

// CornerSpread 四角中离参考色最远的距离，用来提示四角不一致
func CornerSpread(img *image.NRGBA, ref RGB) int {
	spread := 0
	for _, c := range corners(img) {
		spread = max(spread, distance(c, ref))
	}
	return spread
}

// corners 左上、右上、左下、右下
func corners(img *image.NRGBA) [4]RGB {
	b := img.Bounds()
	at := func(x, y int) RGB {
		c := img.NRGBAAt(x, y)
		return RGB{R: c.R, G: c.G, B: c.B}
	}
	return [4]RGB{
		at(b.Min.X, b.Min.Y),
		at(b.Max.X-1, b.Min.Y),
		at(b.Min.X, b.Max.Y-1),
		at(b.Max.X-1, b.Max.Y-1),
	}
}

func distance(a, b RGB) int {
	return max(absDiff(a.R, b.R), absDiff(a.G, b.G), absDiff(a.B, b.B))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
