package rembg

import (
	"context"
	"image"

	"github.com/chaos-io/bgclear/util"
)

// Remover 去除背景，返回新的图片
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// Classifier 判断一个像素（只看 RGB，不看 alpha）是否属于背景
type Classifier interface {
	IsBackground(r, g, b uint8) bool
}

// ClassifierFunc 让普通函数实现 Classifier
type ClassifierFunc func(r, g, b uint8) bool

func (f ClassifierFunc) IsBackground(r, g, b uint8) bool {
	return f(r, g, b)
}

// Rule 为每张图片生成分类器
// 采样规则需要先读图片四角，所以分类器只能按图构造
type Rule interface {
	Classifier(img *image.NRGBA) Classifier
}

// Stats 一次去背景的像素统计
type Stats struct {
	Total   int
	Cleared int
}

// RemoveBackground 把所有被判定为背景的像素改成 (255,255,255,0)，其它像素原样保留
// 返回新的 NRGBA，尺寸和像素顺序与输入一致，src 不会被修改
func RemoveBackground(src *image.NRGBA, c Classifier) *image.NRGBA {
	dst, _ := removeBackground(src, c)
	return dst
}

// RemoveBackgroundStats 同 RemoveBackground，另外返回统计
func RemoveBackgroundStats(src *image.NRGBA, c Classifier) (*image.NRGBA, Stats) {
	return removeBackground(src, c)
}

func removeBackground(src *image.NRGBA, c Classifier) (*image.NRGBA, Stats) {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	w, h := b.Dx(), b.Dy()
	stats := Stats{Total: w * h}

	for y := 0; y < h; y++ {
		si := y * src.Stride
		di := y * dst.Stride
		copy(dst.Pix[di:di+w*4], src.Pix[si:si+w*4])

		for x := 0; x < w; x++ {
			p := dst.Pix[di+x*4 : di+x*4+4 : di+x*4+4]
			if c.IsBackground(p[0], p[1], p[2]) {
				p[0], p[1], p[2], p[3] = 255, 255, 255, 0
				stats.Cleared++
			}
		}
	}
	return dst, stats
}

// RuleRemover 用 Rule 实现 Remover
type RuleRemover struct {
	Rule Rule
}

func NewRuleRemover(rule Rule) *RuleRemover {
	return &RuleRemover{Rule: rule}
}

func (r *RuleRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := util.ToNRGBA(img)
	return RemoveBackground(src, r.Rule.Classifier(src)), nil
}
