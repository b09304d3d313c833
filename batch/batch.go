// Package batch 按配置的文件列表逐个去除图片背景
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/chaos-io/bgclear/config"
	"github.com/chaos-io/bgclear/rembg"
)

// Report 一次运行的结果，按处理顺序
type Report struct {
	Updated []string
	Skipped []string
}

// Run 按顺序处理 cfg 里的每个文件
// 文件不存在时打印提示并跳过，其它错误直接停在该文件
func (p *Processor) Run(ctx context.Context, cfg config.Config) (*Report, error) {
	report := &Report{}
	for _, path := range cfg.Paths() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			_, _ = fmt.Fprintf(p.Out, "Skip (not found): %s\n", path)
			report.Skipped = append(report.Skipped, path)
			continue
		}

		res, err := p.ProcessFile(path)
		if err != nil {
			return report, err
		}
		report.Updated = append(report.Updated, path)
		p.notice(res)
	}
	return report, nil
}

func (p *Processor) notice(res *Result) {
	if res.HadAlpha {
		_, _ = fmt.Fprintf(p.Out, "Note (already transparent): %s\n", res.Path)
	}

	verb := "Updated"
	if p.DryRun {
		verb = "Would update"
	}
	slog.Debug("cleared pixels", "path", res.Path, "cleared", res.Stats.Cleared, "total", res.Stats.Total)
	if cheb, ok := res.Classifier.(rembg.Chebyshev); ok {
		_, _ = fmt.Fprintf(p.Out, "%s: %s (%s)\n", verb, res.Path, cheb)
		return
	}
	_, _ = fmt.Fprintf(p.Out, "%s: %s\n", verb, res.Path)
}
