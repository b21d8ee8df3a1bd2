package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// ErrTemplateNotFound 模板配置不存在
var ErrTemplateNotFound = errors.New("模板不存在")

// CreateRequest 新建模板的参数
type CreateRequest struct {
	Name             string
	OriginalFilename string
	Data             []byte
	LocationMapping  domain.LocationMapping
	TextMapping      domain.TextMapping
	Description      string
}

// Repository 模板存储接口
type Repository interface {
	Create(req CreateRequest) (*TemplateConfig, error)
	Save(cfg *TemplateConfig) error
	Load(id string) (*TemplateConfig, error)
	// List 按更新时间倒序
	List() ([]*TemplateConfig, error)
	Delete(id string) error
	TemplateBytes(cfg *TemplateConfig) ([]byte, error)
}

var (
	_ Repository = (*FileRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)

// FileRepository 模板文件存放在 templates/，配置存放在 configs/
type FileRepository struct {
	templatesDir string
	configsDir   string
	backup       bool
	logger       *log.Logger
}

// NewFileRepository 创建基于目录的模板存储
func NewFileRepository(root string, backup bool, logger *log.Logger) (*FileRepository, error) {
	if root == "" {
		return nil, fmt.Errorf("存储目录不能为空")
	}
	if logger == nil {
		logger = log.Default()
	}

	fr := &FileRepository{
		templatesDir: filepath.Join(root, "templates"),
		configsDir:   filepath.Join(root, "configs"),
		backup:       backup,
		logger:       logger,
	}
	for _, dir := range []string{fr.templatesDir, fr.configsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建目录失败: %w", err)
		}
	}
	return fr, nil
}

// newTemplateID 取 UUID 的前 8 位
func newTemplateID() string {
	return uuid.NewString()[:8]
}

func newConfig(req CreateRequest, id string) (*TemplateConfig, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("模板文件内容不能为空")
	}
	base := filepath.Base(req.OriginalFilename)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return nil, fmt.Errorf("原始文件名不能为空")
	}

	now := Now()
	cfg := &TemplateConfig{
		TemplateID:       id,
		TemplateName:     req.Name,
		OriginalFilename: base,
		TemplateFilename: id + "_" + base,
		LocationMapping:  req.LocationMapping,
		TextMapping:      req.TextMapping,
		CreatedAt:        now,
		UpdatedAt:        now,
		Description:      req.Description,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("模板配置验证失败: %w", err)
	}
	return cfg, nil
}

// Create 保存模板文件和配置
func (fr *FileRepository) Create(req CreateRequest) (*TemplateConfig, error) {
	cfg, err := newConfig(req, newTemplateID())
	if err != nil {
		return nil, err
	}

	blob := filepath.Join(fr.templatesDir, cfg.TemplateFilename)
	if err := os.WriteFile(blob, req.Data, 0644); err != nil {
		return nil, fmt.Errorf("保存模板文件失败: %w", err)
	}
	if err := fr.Save(cfg); err != nil {
		if rmErr := os.Remove(blob); rmErr != nil {
			fr.logger.Printf("清理模板文件失败: %v", rmErr)
		}
		return nil, err
	}

	fr.logger.Printf("模板已保存: %s (%s)", cfg.TemplateName, cfg.TemplateID)
	return cfg, nil
}

// Save 写入配置并刷新更新时间
func (fr *FileRepository) Save(cfg *TemplateConfig) error {
	if err := validID(cfg.TemplateID); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("模板配置验证失败: %w", err)
	}
	cfg.UpdatedAt = Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = cfg.UpdatedAt
	}

	path := fr.configPath(cfg.TemplateID)
	if fr.backup {
		if err := fr.createBackup(path); err != nil {
			fr.logger.Printf("创建备份失败: %v", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化模板配置失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入模板配置失败: %w", err)
	}
	return nil
}

// Load 读取模板配置
func (fr *FileRepository) Load(id string) (*TemplateConfig, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return fr.readConfig(fr.configPath(id))
}

func (fr *FileRepository) readConfig(path string) (*TemplateConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
	}
	if err != nil {
		return nil, fmt.Errorf("读取模板配置失败: %w", err)
	}

	var cfg TemplateConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析模板配置失败: %w", err)
	}
	return &cfg, nil
}

// List 列出全部模板，损坏的配置文件会被跳过
func (fr *FileRepository) List() ([]*TemplateConfig, error) {
	entries, err := os.ReadDir(fr.configsDir)
	if err != nil {
		return nil, fmt.Errorf("读取配置目录失败: %w", err)
	}

	var configs []*TemplateConfig
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.Contains(name, "_backup_") {
			continue
		}
		cfg, err := fr.readConfig(filepath.Join(fr.configsDir, name))
		if err != nil {
			fr.logger.Printf("跳过无效的模板配置 %s: %v", name, err)
			continue
		}
		configs = append(configs, cfg)
	}

	sortByUpdated(configs)
	return configs, nil
}

// Delete 删除模板文件和配置
func (fr *FileRepository) Delete(id string) error {
	cfg, err := fr.Load(id)
	if err != nil {
		return err
	}

	if cfg.TemplateFilename != "" {
		path := filepath.Join(fr.templatesDir, filepath.Base(cfg.TemplateFilename))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("删除模板文件失败: %w", err)
		}
	}
	if err := os.Remove(fr.configPath(id)); err != nil {
		return fmt.Errorf("删除模板配置失败: %w", err)
	}
	return nil
}

// TemplateBytes 读取模板原始内容，缺失时返回 ErrTemplateUnavailable
func (fr *FileRepository) TemplateBytes(cfg *TemplateConfig) ([]byte, error) {
	if cfg == nil || cfg.TemplateFilename == "" {
		return nil, domain.ErrTemplateUnavailable
	}
	data, err := os.ReadFile(filepath.Join(fr.templatesDir, filepath.Base(cfg.TemplateFilename)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTemplateUnavailable, err)
	}
	if len(data) == 0 {
		return nil, domain.ErrTemplateUnavailable
	}
	return data, nil
}

func (fr *FileRepository) configPath(id string) string {
	return filepath.Join(fr.configsDir, id+".json")
}

// createBackup 创建配置文件备份
func (fr *FileRepository) createBackup(path string) error {
	src, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("读取原文件失败: %w", err)
	}

	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)
	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s_backup_%s%s", name, timestamp, ext))

	if err := os.WriteFile(backupPath, src, 0644); err != nil {
		return fmt.Errorf("写入备份文件失败: %w", err)
	}
	return nil
}

func validID(id string) error {
	if id == "" {
		return fmt.Errorf("模板ID不能为空")
	}
	if strings.ContainsAny(id, `/\.`) {
		return fmt.Errorf("无效的模板ID: %s", id)
	}
	return nil
}

func sortByUpdated(configs []*TemplateConfig) {
	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].UpdatedAt.After(configs[j].UpdatedAt.Time)
	})
}
