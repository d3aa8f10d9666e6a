package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/xe"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.json")
	r, err := New(zap.NewNop(), path)
	require.NoError(t, err)
	return r
}

func activeCount(r *Registry) int {
	n := 0
	for _, m := range r.List() {
		if m.IsActive {
			n++
		}
	}
	return n
}

func TestFirstModelAutoActive(t *testing.T) {
	r := newTestRegistry(t)

	m, err := r.Add(AIModel{Name: "deepseek", Provider: "siliconflow", Model: "deepseek-ai/DeepSeek-V3", APIKey: "sk-1"})
	require.NoError(t, err)
	assert.True(t, m.IsActive)

	active, err := r.Active()
	require.NoError(t, err)
	assert.Equal(t, m.ID, active.ID)
}

func TestSetActiveClearsOthers(t *testing.T) {
	r := newTestRegistry(t)
	m1, err := r.Add(AIModel{Name: "a", Provider: "openai", Model: "gpt-4o", APIKey: "k1"})
	require.NoError(t, err)
	m2, err := r.Add(AIModel{Name: "b", Provider: "gemini", Model: "gemini-2.0-flash", APIKey: "k2"})
	require.NoError(t, err)

	require.NoError(t, r.SetActive(m2.ID))
	assert.Equal(t, 1, activeCount(r))

	active, err := r.Active()
	require.NoError(t, err)
	assert.Equal(t, m2.ID, active.ID)

	require.NoError(t, r.SetActive(m1.ID))
	assert.Equal(t, 1, activeCount(r))
}

func TestDeleteActivePromotesFirst(t *testing.T) {
	r := newTestRegistry(t)
	m1, err := r.Add(AIModel{Name: "a", Provider: "openai", Model: "m1", APIKey: "k"})
	require.NoError(t, err)
	m2, err := r.Add(AIModel{Name: "b", Provider: "openai", Model: "m2", APIKey: "k"})
	require.NoError(t, err)
	_, err = r.Add(AIModel{Name: "c", Provider: "openai", Model: "m3", APIKey: "k"})
	require.NoError(t, err)

	require.NoError(t, r.Delete(m1.ID))
	assert.Equal(t, 1, activeCount(r))

	active, err := r.Active()
	require.NoError(t, err)
	assert.Equal(t, m2.ID, active.ID, "删除激活模型后应自动激活剩余的第一个")
}

func TestAtMostOneActiveAfterAnySequence(t *testing.T) {
	r := newTestRegistry(t)
	var ids []string
	for _, name := range []string{"a", "b", "c", "d"} {
		m, err := r.Add(AIModel{Name: name, Provider: "openai", Model: "m", APIKey: "k"})
		require.NoError(t, err)
		ids = append(ids, m.ID)
		assert.LessOrEqual(t, activeCount(r), 1)
	}

	require.NoError(t, r.SetActive(ids[2]))
	assert.Equal(t, 1, activeCount(r))
	require.NoError(t, r.Delete(ids[2]))
	assert.Equal(t, 1, activeCount(r))
	require.NoError(t, r.Update(ids[0], AIModel{Name: "renamed"}))
	assert.Equal(t, 1, activeCount(r))
	require.NoError(t, r.Delete(ids[0]))
	require.NoError(t, r.Delete(ids[1]))
	require.NoError(t, r.Delete(ids[3]))

	_, err := r.Active()
	assert.ErrorIs(t, err, xe.ErrNoActiveModel, "注册表为空时 Active 应报错")
}

func TestRollbackOnPersistFailure(t *testing.T) {
	r := newTestRegistry(t)
	m1, err := r.Add(AIModel{Name: "a", Provider: "openai", Model: "m1", APIKey: "k"})
	require.NoError(t, err)
	m2, err := r.Add(AIModel{Name: "b", Provider: "gemini", Model: "m2", APIKey: "k"})
	require.NoError(t, err)
	require.NoError(t, r.SetActive(m2.ID))

	// 把注册表路径指向已存在的目录，使原子替换必然失败
	r.path = t.TempDir()

	require.Error(t, r.Update(m1.ID, AIModel{Name: "renamed"}))
	models := r.List()
	require.Len(t, models, 2)
	assert.Equal(t, "a", models[0].Name, "持久化失败后字段更新应回滚")

	require.Error(t, r.SetActive(m1.ID))
	active, err := r.Active()
	require.NoError(t, err)
	assert.Equal(t, m2.ID, active.ID, "持久化失败后激活状态应回滚")

	require.Error(t, r.Delete(m1.ID))
	assert.Len(t, r.List(), 2, "持久化失败后删除应回滚")
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	r, err := New(zap.NewNop(), path)
	require.NoError(t, err)

	m, err := r.Add(AIModel{Name: "a", Provider: "openai", Model: "gpt-4o", APIKey: "k"})
	require.NoError(t, err)

	// 重新加载后内容一致
	r2, err := New(zap.NewNop(), path)
	require.NoError(t, err)
	models := r2.List()
	require.Len(t, models, 1)
	assert.Equal(t, m.ID, models[0].ID)
	assert.True(t, models[0].IsActive)

	// 文件确实是整体重写的JSON数组
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])
}

func TestAddValidation(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Add(AIModel{Name: "no-key", Model: "m"})
	assert.Error(t, err)
}
