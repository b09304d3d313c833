package util

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
)

// OpenImage 打开本地图片
func OpenImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	img, _, err := image.Decode(file)
	return img, err
}

// SavePNG 先编码到同目录的临时文件，成功后再 rename 覆盖目标
// 编码失败时原文件保持不变，也不会留下半截文件
func SavePNG(path string, img image.Image) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+ksuid.New().String()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	// 覆盖已有文件时沿用它的权限
	if info, err := os.Stat(path); err == nil {
		if err := f.Chmod(info.Mode().Perm()); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("chmod temp file: %w", err)
		}
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("png encode: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
