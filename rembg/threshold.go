package rembg

import (
	"fmt"
	"image"
)

// DefaultThreshold 接近白色的阈值，R、G、B 都不低于它就算背景
const DefaultThreshold = 245

// Threshold 固定阈值分类器
type Threshold struct {
	Min uint8
}

func (t Threshold) IsBackground(r, g, b uint8) bool {
	return r >= t.Min && g >= t.Min && b >= t.Min
}

func (t Threshold) String() string {
	return fmt.Sprintf("rgb >= %d", t.Min)
}

// Fixed 固定阈值规则，与图片内容无关
type Fixed struct {
	Threshold uint8
}

func NewFixed(threshold uint8) *Fixed {
	return &Fixed{Threshold: threshold}
}

func (f *Fixed) Classifier(*image.NRGBA) Classifier {
	return Threshold{Min: f.Threshold}
}
