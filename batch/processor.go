package batch

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chaos-io/bgclear/rembg"
	"github.com/chaos-io/bgclear/util"
)

// DefaultPreviewSize 预览图最长边
const DefaultPreviewSize = 256

// Processor 处理单张图片：读取、去背景、写回
type Processor struct {
	Rule rembg.Rule
	Out  io.Writer

	DryRun      bool
	PreviewDir  string
	PreviewSize int
}

func NewProcessor(rule rembg.Rule) *Processor {
	return &Processor{
		Rule:        rule,
		Out:         os.Stdout,
		PreviewSize: DefaultPreviewSize,
	}
}

// Result 单张图片的处理结果
type Result struct {
	Path       string
	Classifier rembg.Classifier
	Stats      rembg.Stats

	// HadAlpha 输入图片本来就有透明像素
	HadAlpha bool
}

// ProcessFile 读取 path，去掉背景后写回同一路径
// 整张图在内存里处理完才会编码写盘，失败时原文件不变
func (p *Processor) ProcessFile(path string) (*Result, error) {
	defer util.Trace("process " + path)()

	img, err := util.OpenImage(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}

	out, res := p.process(path, img)

	if p.DryRun {
		return res, nil
	}
	if err := util.SavePNG(path, out); err != nil {
		return nil, fmt.Errorf("save image %s: %w", path, err)
	}
	if p.PreviewDir != "" {
		if err := p.writePreview(path, out); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (p *Processor) process(path string, img image.Image) (*image.NRGBA, *Result) {
	// 1. 转为 NRGBA，方便统一处理
	src := util.ToNRGBA(img)
	hadAlpha := util.HasUsefulAlpha(src)

	// 2. 每张图构造一次分类器（采样规则在这里取参考色）
	c := p.Rule.Classifier(src)
	if cheb, ok := c.(rembg.Chebyshev); ok {
		if spread := rembg.CornerSpread(src, cheb.Ref); spread > int(cheb.Tolerance) {
			slog.Warn("corners disagree, sampled background may be off",
				"path", path, "ref", cheb.Ref.String(), "spread", spread)
		}
	}

	// 3. 背景去除
	out, stats := rembg.RemoveBackgroundStats(src, c)

	// 4. 剩余主体范围，仅用于日志
	if bbox, err := util.AlphaBBox(out, 0); err == nil {
		slog.Debug("foreground", "path", path, "bbox", bbox.String())
	} else {
		slog.Warn("every pixel was cleared", "path", path)
	}

	return out, &Result{Path: path, Classifier: c, Stats: stats, HadAlpha: hadAlpha}
}

func (p *Processor) writePreview(path string, img *image.NRGBA) error {
	if err := os.MkdirAll(p.PreviewDir, os.ModePerm); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	size := p.PreviewSize
	if size <= 0 {
		size = DefaultPreviewSize
	}
	previewPath := filepath.Join(p.PreviewDir, filepath.Base(path))
	if err := util.SavePNG(previewPath, util.ResizeWithinMax(img, size)); err != nil {
		return fmt.Errorf("save preview %s: %w", previewPath, err)
	}
	slog.Debug("wrote preview", "path", previewPath)
	return nil
}
