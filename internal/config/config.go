package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputConfig 生成文件的命名规则
type OutputConfig struct {
	// DisplayNameKeys 依次查找的显示名变量
	DisplayNameKeys []string `json:"display_name_keys" yaml:"display_name_keys"`
	FilenameSuffix  string   `json:"filename_suffix" yaml:"filename_suffix"`
	// OrdinalPrefix 记录没有显示名时使用 "<前缀>_<序号>"
	OrdinalPrefix string `json:"ordinal_prefix" yaml:"ordinal_prefix"`
	// DefaultName 清理后文件名为空时使用
	DefaultName   string `json:"default_name" yaml:"default_name"`
	ArchivePrefix string `json:"archive_prefix" yaml:"archive_prefix"`
}

// ProcessingConfig 处理配置
type ProcessingConfig struct {
	EnableDetailedLogging bool `json:"enable_detailed_logging" yaml:"enable_detailed_logging"`
	MaxConcurrentRecords  int  `json:"max_concurrent_records" yaml:"max_concurrent_records"`
	BackupConfigs         bool `json:"backup_configs" yaml:"backup_configs"`
}

// RecordsConfig 数据表读取配置
type RecordsConfig struct {
	// Sheet 为空时读取第一个工作表
	Sheet      string `json:"sheet" yaml:"sheet"`
	DateLayout string `json:"date_layout" yaml:"date_layout"`
}

// Config 表示完整的配置文件结构
type Config struct {
	StorageDir string           `json:"storage_dir" yaml:"storage_dir"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Processing ProcessingConfig `json:"processing" yaml:"processing"`
	Records    RecordsConfig    `json:"records" yaml:"records"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		StorageDir: "data",
		Output: OutputConfig{
			DisplayNameKeys: []string{"姓名", "name"},
			FilenameSuffix:  "_合同",
			OrdinalPrefix:   "合同",
			DefaultName:     "文件",
			ArchivePrefix:   "合同",
		},
		Processing: ProcessingConfig{
			MaxConcurrentRecords: 1,
		},
		Records: RecordsConfig{
			DateLayout: "2006-01-02",
		},
	}
}

// ConfigManager 配置管理接口
type ConfigManager interface {
	LoadConfig(filePath string) (*Config, error)
	ValidateConfig(config *Config) error
	SaveConfig(config *Config, filePath string) error
}

// configManager 配置管理器实现
type configManager struct{}

// NewConfigManager 创建新的配置管理器
func NewConfigManager() ConfigManager {
	return &configManager{}
}

type format int

const (
	formatJSON format = iota
	formatYAML
)

func detectFormat(filePath string) (format, error) {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("配置文件必须是 JSON 或 YAML 格式，当前文件: %s", ext)
	}
}

// LoadConfig 从文件加载配置，未填写的字段保留默认值
func (cm *configManager) LoadConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, fmt.Errorf("配置文件路径不能为空")
	}

	// 检查文件是否存在
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", filePath)
	}

	f, err := detectFormat(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultConfig()
	switch f {
	case formatYAML:
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cm.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return config, nil
}

// ValidateConfig 验证配置的有效性
func (cm *configManager) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if strings.TrimSpace(config.StorageDir) == "" {
		return fmt.Errorf("存储目录不能为空")
	}

	for i, key := range config.Output.DisplayNameKeys {
		if key == "" {
			return fmt.Errorf("第 %d 个显示名变量不能为空", i+1)
		}
	}
	if config.Output.OrdinalPrefix == "" {
		return fmt.Errorf("序号前缀不能为空")
	}
	if config.Output.DefaultName == "" {
		return fmt.Errorf("默认文件名不能为空")
	}
	if strings.ContainsAny(config.Output.FilenameSuffix, `/\`) {
		return fmt.Errorf("文件名后缀不能包含路径分隔符")
	}

	if n := config.Processing.MaxConcurrentRecords; n < 1 || n > 50 {
		return fmt.Errorf("最大并发记录数必须在1-50之间")
	}

	if config.Records.DateLayout == "" {
		return fmt.Errorf("日期格式不能为空")
	}

	return nil
}

// SaveConfig 按扩展名保存为 JSON 或 YAML
func (cm *configManager) SaveConfig(config *Config, filePath string) error {
	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	f, err := detectFormat(filePath)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case formatYAML:
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
