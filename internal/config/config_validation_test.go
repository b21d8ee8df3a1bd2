package config

import (
	"testing"
)

func TestConfigManager_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{
			name:    "default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty storage dir",
			modify:  func(c *Config) { c.StorageDir = "  " },
			wantErr: true,
		},
		{
			name:    "empty display name key",
			modify:  func(c *Config) { c.Output.DisplayNameKeys = []string{"姓名", ""} },
			wantErr: true,
		},
		{
			name:    "no display name keys",
			modify:  func(c *Config) { c.Output.DisplayNameKeys = nil },
			wantErr: false,
		},
		{
			name:    "empty ordinal prefix",
			modify:  func(c *Config) { c.Output.OrdinalPrefix = "" },
			wantErr: true,
		},
		{
			name:    "empty default name",
			modify:  func(c *Config) { c.Output.DefaultName = "" },
			wantErr: true,
		},
		{
			name:    "suffix with separator",
			modify:  func(c *Config) { c.Output.FilenameSuffix = "/../x" },
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.Processing.MaxConcurrentRecords = 0 },
			wantErr: true,
		},
		{
			name:    "empty date layout",
			modify:  func(c *Config) { c.Records.DateLayout = "" },
			wantErr: true,
		},
	}

	manager := NewConfigManager()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := manager.ValidateConfig(config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := manager.ValidateConfig(nil); err == nil {
		t.Error("nil 配置应该返回错误")
	}
}
