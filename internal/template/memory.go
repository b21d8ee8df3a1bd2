package template

import (
	"fmt"
	"sync"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// MemoryRepository 内存中的模板存储
type MemoryRepository struct {
	mu      sync.RWMutex
	configs map[string]*TemplateConfig
	blobs   map[string][]byte
}

// NewMemoryRepository 创建内存模板存储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		configs: make(map[string]*TemplateConfig),
		blobs:   make(map[string][]byte),
	}
}

func (mr *MemoryRepository) Create(req CreateRequest) (*TemplateConfig, error) {
	cfg, err := newConfig(req, newTemplateID())
	if err != nil {
		return nil, err
	}

	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.blobs[cfg.TemplateFilename] = append([]byte(nil), req.Data...)
	mr.configs[cfg.TemplateID] = copyConfig(cfg)
	return cfg, nil
}

func (mr *MemoryRepository) Save(cfg *TemplateConfig) error {
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

	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.configs[cfg.TemplateID] = copyConfig(cfg)
	return nil
}

func (mr *MemoryRepository) Load(id string) (*TemplateConfig, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	cfg, ok := mr.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return copyConfig(cfg), nil
}

func (mr *MemoryRepository) List() ([]*TemplateConfig, error) {
	mr.mu.RLock()
	configs := make([]*TemplateConfig, 0, len(mr.configs))
	for _, cfg := range mr.configs {
		configs = append(configs, copyConfig(cfg))
	}
	mr.mu.RUnlock()

	sortByUpdated(configs)
	return configs, nil
}

func (mr *MemoryRepository) Delete(id string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	cfg, ok := mr.configs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	delete(mr.blobs, cfg.TemplateFilename)
	delete(mr.configs, id)
	return nil
}

func (mr *MemoryRepository) TemplateBytes(cfg *TemplateConfig) ([]byte, error) {
	if cfg == nil {
		return nil, domain.ErrTemplateUnavailable
	}
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	data, ok := mr.blobs[cfg.TemplateFilename]
	if !ok || len(data) == 0 {
		return nil, domain.ErrTemplateUnavailable
	}
	return data, nil
}

// copyConfig 映射在保存后不可变，复制外层结构和两个映射即可
func copyConfig(cfg *TemplateConfig) *TemplateConfig {
	c := *cfg
	if cfg.LocationMapping != nil {
		c.LocationMapping = make(domain.LocationMapping, len(cfg.LocationMapping))
		for k, v := range cfg.LocationMapping {
			c.LocationMapping[k] = v
		}
	}
	if cfg.TextMapping != nil {
		c.TextMapping = make(domain.TextMapping, len(cfg.TextMapping))
		for k, v := range cfg.TextMapping {
			c.TextMapping[k] = v
		}
	}
	return &c
}
