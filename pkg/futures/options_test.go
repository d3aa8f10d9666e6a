package futures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseOptionPCR(t *testing.T) {
	body := []byte(`{"result":{"data":{
		"up":[["100","3500","10","3520","200"],["300","3600","5","3620","0"]],
		"down":[["50","3400","8","3380","100"],["120","3300","3","3280","30"]]
	}}}`)

	pcr, err := parseOptionPCR(body, "rb2510")
	require.NoError(t, err)

	assert.Equal(t, "rb2510", pcr.Contract)
	assert.Equal(t, int64(600), pcr.CallVolume, "买量+卖量双边求和")
	assert.Equal(t, int64(300), pcr.PutVolume)
	assert.InDelta(t, 0.5, pcr.Ratio, 1e-9, "PCR为put/call")
}

func TestParseOptionPCRNoCallVolume(t *testing.T) {
	body := []byte(`{"result":{"data":{
		"up":[["0","3500","10","3520","0"]],
		"down":[["50","3400","8","3380","100"]]
	}}}`)

	_, err := parseOptionPCR(body, "m2509")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无成交")
}

func TestParseOptionPCRInvalidBody(t *testing.T) {
	_, err := parseOptionPCR([]byte("<html>error</html>"), "rb2510")
	require.Error(t, err)

	_, err = parseOptionPCR([]byte(`{"result":{}}`), "rb2510")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无期权数据")
}

func TestSumOptionVolumeSkipsShortRows(t *testing.T) {
	body := []byte(`{"rows":[["10","a","b","c","20"],["999"]]}`)
	total := sumOptionVolume(gjson.GetBytes(body, "rows"))
	assert.Equal(t, int64(30), total)
}
