package futures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExchange(t *testing.T) {
	cases := []struct {
		symbol   string
		exchange Exchange
	}{
		{"rb2505", SHFE},
		{"RB2505", SHFE},
		{"hc2410", SHFE},
		{"m2505", DCE},
		{"a2505", DCE},
		{"al2505", SHFE}, // 完整品种优先于单字母 a -> DCE
		{"TA2505", CZCE},
		{"ta505", CZCE},
		{"T2506", CFFEX}, // 单字母国债
		{"TS2506", CFFEX},
		{"IF2506", CFFEX},
		{"si2507", GFEX},
		{"lc2507", GFEX},
	}

	for _, tc := range cases {
		ex, err := ResolveExchange(tc.symbol)
		require.NoError(t, err, tc.symbol)
		assert.Equal(t, tc.exchange, ex, tc.symbol)
	}
}

func TestResolveExchangeDeterministic(t *testing.T) {
	first, err := ResolveExchange("rb2505")
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		ex, err := ResolveExchange("rb2505")
		require.NoError(t, err)
		assert.Equal(t, first, ex)
	}
}

func TestResolveExchangeUnknown(t *testing.T) {
	_, err := ResolveExchange("xx9999")
	assert.Error(t, err)

	_, err = ResolveExchange("")
	assert.Error(t, err)
}

func TestProductCode(t *testing.T) {
	assert.Equal(t, "RB", ProductCode("rb2505"))
	assert.Equal(t, "TA", ProductCode("TA505"))
	assert.Equal(t, "A", ProductCode("a2509"))
	assert.Equal(t, "RB", ProductCode("rb")) // 无数字后缀
}
