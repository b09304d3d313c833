// Package config 描述一次运行要处理哪些图片，以及怎样识别背景
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chaos-io/bgclear/rembg"
)

// DefaultDir 未配置目录时使用，相对当前工作目录
const DefaultDir = "images"

// 规则名
const (
	RuleThreshold = "threshold"
	RuleSampled   = "sampled"
)

// Config 一次运行的全部输入：图片目录、目录下有序的文件列表、背景规则
type Config struct {
	Dir       string   `json:"dir,omitempty"`
	Files     []string `json:"files"`
	Rule      string   `json:"rule"`
	Threshold int      `json:"threshold,omitempty"` // rule=threshold
	Tolerance int      `json:"tolerance,omitempty"` // rule=sampled
}

// Butterflies 蝴蝶图片：接近白色的像素变透明
func Butterflies() Config {
	return Config{
		Dir:       DefaultDir,
		Files:     []string{"butterfly-pink.png", "butterfly-orange.png"},
		Rule:      RuleThreshold,
		Threshold: rembg.DefaultThreshold,
		Tolerance: rembg.DefaultTolerance,
	}
}

// Plants 像素植物图片：从四角采样米色背景，再把接近的像素变透明
func Plants() Config {
	return Config{
		Dir: DefaultDir,
		Files: []string{
			"pixel-plant.png",
			"pixel-plant-2.png",
			"pixel-plant-3.png",
			"pixel-plant-4.png",
			"pixel-plant-5.png",
		},
		Rule:      RuleSampled,
		Threshold: rembg.DefaultThreshold,
		Tolerance: rembg.DefaultTolerance,
	}
}

// Load 在 base 的基础上读取 JSON 配置，文件里没有的字段保持 base 的值
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	cfg.Files = append([]string(nil), base.Files...)
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate 返回第一个配置错误
func (c Config) Validate() error {
	if len(c.Files) == 0 {
		return errors.New("no files configured")
	}
	for _, f := range c.Files {
		if f == "" {
			return errors.New("empty file name")
		}
	}
	switch c.Rule {
	case RuleThreshold:
		if c.Threshold < 0 || c.Threshold > 255 {
			return fmt.Errorf("threshold %d out of range [0,255]", c.Threshold)
		}
	case RuleSampled:
		if c.Tolerance < 0 || c.Tolerance > 255 {
			return fmt.Errorf("tolerance %d out of range [0,255]", c.Tolerance)
		}
	default:
		return fmt.Errorf("unknown rule %q", c.Rule)
	}
	return nil
}

// Paths 按顺序返回 Dir 下的完整路径
func (c Config) Paths() []string {
	dir := c.Dir
	if dir == "" {
		dir = DefaultDir
	}
	paths := make([]string, len(c.Files))
	for i, f := range c.Files {
		paths[i] = filepath.Join(dir, f)
	}
	return paths
}

// BuildRule 根据配置构造背景规则，调用前需先 Validate
func (c Config) BuildRule() rembg.Rule {
	if c.Rule == RuleSampled {
		return rembg.NewSampled(uint8(c.Tolerance))
	}
	return rembg.NewFixed(uint8(c.Threshold))
}
