package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/xe"
)

// AIModel 已配置的LLM模型凭据
type AIModel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`     // 展示名称
	Provider    string    `json:"provider"` // openai / siliconflow / deepseek / gemini
	Model       string    `json:"model"`    // 模型名，如 deepseek-ai/DeepSeek-V3
	APIKey      string    `json:"api_key"`
	BaseURL     string    `json:"base_url,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Registry JSON文件形式的模型注册表。
// 所有写操作整体重写文件，由互斥锁保证进程内串行。
type Registry struct {
	logger *zap.Logger
	path   string

	mu     sync.Mutex
	models []AIModel
}

// New 加载模型注册表，文件不存在时从空表开始
func New(logger *zap.Logger, path string) (*Registry, error) {
	r := &Registry{logger: logger, path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取模型注册表失败: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.models); err != nil {
			return nil, fmt.Errorf("模型注册表格式错误: %w", err)
		}
	}
	return r, nil
}

// List 返回全部模型的副本
func (r *Registry) List() []AIModel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AIModel, len(r.models))
	copy(out, r.models)
	return out
}

// Active 返回当前激活的模型
func (r *Registry) Active() (AIModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.models {
		if m.IsActive {
			return m, nil
		}
	}
	return AIModel{}, xe.ErrNoActiveModel
}

// Add 新增模型，注册表为空时自动激活第一个模型
func (r *Registry) Add(m AIModel) (AIModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.Name == "" || m.APIKey == "" || m.Model == "" {
		return AIModel{}, fmt.Errorf("模型名称、API Key与模型名不能为空")
	}
	m.ID = ulid.Make().String()
	m.CreatedAt = time.Now()
	m.IsActive = len(r.models) == 0

	r.models = append(r.models, m)
	if err := r.persist(); err != nil {
		r.models = r.models[:len(r.models)-1]
		return AIModel{}, err
	}
	r.logger.Info("模型已添加", zap.String("id", m.ID), zap.String("name", m.Name))
	return m, nil
}

// Update 按ID更新模型字段，不改变激活状态
func (r *Registry) Update(id string, patch AIModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.models {
		if r.models[i].ID != id {
			continue
		}
		prev := r.models[i]
		if patch.Name != "" {
			r.models[i].Name = patch.Name
		}
		if patch.Provider != "" {
			r.models[i].Provider = patch.Provider
		}
		if patch.Model != "" {
			r.models[i].Model = patch.Model
		}
		if patch.APIKey != "" {
			r.models[i].APIKey = patch.APIKey
		}
		if patch.BaseURL != "" {
			r.models[i].BaseURL = patch.BaseURL
		}
		if patch.Description != "" {
			r.models[i].Description = patch.Description
		}
		if err := r.persist(); err != nil {
			r.models[i] = prev
			return err
		}
		return nil
	}
	return fmt.Errorf("模型不存在: %s", id)
}

// SetActive 激活指定模型并取消其他模型的激活状态
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for i := range r.models {
		if r.models[i].ID == id {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("模型不存在: %s", id)
	}

	prev := r.snapshot()
	for i := range r.models {
		r.models[i].IsActive = r.models[i].ID == id
	}
	if err := r.persist(); err != nil {
		r.models = prev
		return err
	}
	return nil
}

// Delete 删除模型。删除的是激活模型时，自动激活剩余的第一个。
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.models {
		if r.models[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("模型不存在: %s", id)
	}

	prev := r.snapshot()
	wasActive := r.models[idx].IsActive
	r.models = append(r.models[:idx], r.models[idx+1:]...)
	if wasActive && len(r.models) > 0 {
		for i := range r.models {
			r.models[i].IsActive = i == 0
		}
	}
	if err := r.persist(); err != nil {
		r.models = prev
		return err
	}
	return nil
}

// snapshot 拷贝当前模型列表，持久化失败时用于回滚
func (r *Registry) snapshot() []AIModel {
	cp := make([]AIModel, len(r.models))
	copy(cp, r.models)
	return cp
}

// persist 整体重写注册表文件，写临时文件后原子替换
func (r *Registry) persist() error {
	data, err := json.MarshalIndent(r.models, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建注册表目录失败: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("写入模型注册表失败: %w", err)
	}
	return os.Rename(tmp, r.path)
}
