package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"market-keeper-go/band"
)

// Bands 买卖两侧的原始带配置。这里只做语法解析；
// 语义校验（区间重叠等）由核心在每个 tick 重新执行。
type Bands struct {
	BuyBands  []band.Spec `yaml:"buyBands"`
	SellBands []band.Spec `yaml:"sellBands"`
}

// LoadBands reads the band configuration file.
func LoadBands(path string) (Bands, error) {
	var b Bands
	raw, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read bands: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("parse bands yaml: %w", err)
	}
	return b, nil
}
