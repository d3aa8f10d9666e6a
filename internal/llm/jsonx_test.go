package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPure(t *testing.T) {
	out, err := ExtractJSON(`{"direction":"LONG","signal_strength":8}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"direction":"LONG","signal_strength":8}`, out)
}

func TestExtractJSONEmbeddedInProse(t *testing.T) {
	text := "好的，以下是分析结果：\n```json\n{\"direction\": \"SHORT\", \"reason\": \"均线空头排列\"}\n```\n希望对你有帮助。"
	out, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"direction":"SHORT","reason":"均线空头排列"}`, out)
}

func TestExtractJSONNestedBraces(t *testing.T) {
	text := `Here is the result: {"a":{"b":1},"c":[{"d":2}]} Thanks`
	out, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":1},"c":[{"d":2}]}`, out)
}

func TestExtractJSONFailures(t *testing.T) {
	_, err := ExtractJSON("")
	assert.Error(t, err)

	_, err = ExtractJSON("没有任何结构化内容")
	assert.Error(t, err)

	_, err = ExtractJSON(`prefix {"broken": } suffix`)
	assert.Error(t, err)
}

func TestUnmarshalReply(t *testing.T) {
	var result struct {
		Direction      string  `json:"direction"`
		SignalStrength float64 `json:"signal_strength"`
		RRRatio        float64 `json:"rr_ratio"`
	}
	text := `分析如下 {"direction":"LONG","signal_strength":7.5,"rr_ratio":2.1} 完毕`
	require.NoError(t, UnmarshalReply(text, &result))
	assert.Equal(t, "LONG", result.Direction)
	assert.Equal(t, 7.5, result.SignalStrength)
	assert.Equal(t, 2.1, result.RRRatio)
}
