package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "无法写入临时配置文件")
	return path
}

// TestLoadConfigKeepsDefaultsForMissingFields 文件中未出现的字段保留默认值
func TestLoadConfigKeepsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
upload:
  allowed_types: ["pdf"]
analysis:
  batch_workers: 8
`)

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"pdf"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, 8, cfg.Analysis.BatchWorkers)
	assert.Equal(t, 10, cfg.Analysis.MaxBatchSize)
	assert.Equal(t, "resume.events", cfg.RabbitMQ.ResumeEventsExchange)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: "from-file"
auth:
  enabled: true
  api_keys: ["file-key"]
`)
	t.Setenv("LLM_API_KEY", "from-env")
	t.Setenv("RESUME_API_KEYS", " k1 , ,k2")
	t.Setenv("RESUME_TRACING_ENABLED", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "配置文件不存在")
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")
	_, err := LoadConfigFromFileOnly(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析配置文件失败")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "默认配置合法", mutate: func(*Config) {}},
		{name: "文件大小非法", mutate: func(c *Config) { c.Upload.MaxFileSize = 0 }, wantErr: "max_file_size"},
		{name: "类型为空", mutate: func(c *Config) { c.Upload.AllowedTypes = nil }, wantErr: "allowed_types"},
		{name: "批量上限非法", mutate: func(c *Config) { c.Analysis.MaxBatchSize = 0 }, wantErr: "max_batch_size"},
		{name: "批量上限超过10", mutate: func(c *Config) { c.Analysis.MaxBatchSize = 11 }, wantErr: "max_batch_size"},
		{name: "批量上限等于10", mutate: func(c *Config) { c.Analysis.MaxBatchSize = 10 }},
		{name: "词表上限为0", mutate: func(c *Config) { c.Analysis.MaxFeatures = 0 }, wantErr: "max_features"},
		{name: "词表上限为负", mutate: func(c *Config) { c.Analysis.MaxFeatures = -5 }, wantErr: "max_features"},
		{name: "并发数非法", mutate: func(c *Config) { c.Analysis.BatchWorkers = -1 }, wantErr: "batch_workers"},
		{name: "开启鉴权但没有key", mutate: func(c *Config) { c.Auth.Enabled = true }, wantErr: "api_keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	cfg := Default().MySQL
	assert.Equal(t,
		"root:password@tcp(localhost:3306)/ai_resume?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		cfg.DSN())
}

func TestCreateSampleConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Upload, cfg.Upload)
	assert.Equal(t, Default().RabbitMQ, cfg.RabbitMQ)
	assert.Equal(t, Default().LLM.Model, cfg.LLM.Model)

	assert.Error(t, CreateSampleConfig(path))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("abc", time.Minute))
}
