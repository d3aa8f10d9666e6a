package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeadline(t *testing.T) {
	assert.Equal(t, "", normalizeHeadline("首页"))
	assert.Equal(t, "", normalizeHeadline("  登录  "))
	assert.Equal(t, "螺纹钢期货主力合约收涨逾百分之二创年内新高",
		normalizeHeadline("\n  螺纹钢期货主力合约收涨逾百分之二创年内新高\t"))
	assert.Equal(t, "央行宣布下调金融机构存款准备金率0.5个百分点",
		normalizeHeadline("央行宣布下调金融机构存款准备金率0.5个百分点"))
}
