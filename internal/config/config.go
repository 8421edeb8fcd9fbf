package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Business BusinessConfig `toml:"business"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// BusinessConfig 业务配置
type BusinessConfig struct {
	DailyHours float64 `toml:"daily_hours"` // 每日工作小时数
	// 系数口径："hours_per_unit"（每单位工时）或 "units_per_day"（每日产量）
	// 口径随参考数据集约定而变，必须显式配置
	CoefficientMode string `toml:"coefficient_mode"`
	// 模糊匹配相似度下限；调低换召回、调高换精度
	FuzzyCutoff float64 `toml:"fuzzy_cutoff"`
	// 编码比较的补零宽度（SINAPI 常见 7 位）
	CodeWidth int `toml:"code_width"`
	// 表头行偏移探测的最大行数
	MaxHeaderProbeRows int `toml:"max_header_probe_rows"`
	// 默认工期上限（天），请求未携带时使用
	DefaultDeadlineDays int `toml:"default_deadline_days"`
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20340,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Business: BusinessConfig{
			DailyHours:          8,
			CoefficientMode:     "hours_per_unit",
			FuzzyCutoff:         0.5,
			CodeWidth:           7,
			MaxHeaderProbeRows:  15,
			DefaultDeadlineDays: 180,
		},
	}
}

// Validate 配置合法性检查
func (c *AppConfig) Validate() error {
	switch c.Business.CoefficientMode {
	case "hours_per_unit", "units_per_day":
	default:
		return fmt.Errorf("coefficient_mode 只允许 hours_per_unit / units_per_day，当前: %q", c.Business.CoefficientMode)
	}
	if c.Business.FuzzyCutoff < 0 || c.Business.FuzzyCutoff > 1 {
		return fmt.Errorf("fuzzy_cutoff 必须在 0-1 之间，当前: %v", c.Business.FuzzyCutoff)
	}
	if c.Business.DailyHours <= 0 {
		return fmt.Errorf("daily_hours 必须为正，当前: %v", c.Business.DailyHours)
	}
	return nil
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig 从可执行文件同目录的 config.toml 加载配置
// 配置文件不存在时使用默认配置
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	// 环境变量覆盖（用于 E2E / 本地运行）
	if v := os.Getenv("PLANOBRA_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}

// EnsureDataDir 确保数据目录及其子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	dataDir := filepath.Join(exeDir, config.Data.DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	for _, subdir := range []string{"uploads", "exports"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
