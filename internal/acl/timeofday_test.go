package acl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeBindRules(t *testing.T) {
	now := time.Date(2026, time.October, 14, 13, 30, 0, 0, time.UTC)
	require.Equal(t, time.Wednesday, now.Weekday())
	h := NewHandler(HandlerConfig{Clock: func() time.Time { return now }})

	tests := []struct {
		rule string
		want Result
	}{
		{`timeofday="1330"`, ResultTrue},
		{`timeofday!="1330"`, ResultFalse},
		{`timeofday>"1200"`, ResultTrue},
		{`timeofday<"1200"`, ResultFalse},
		{`timeofday<="1330"`, ResultTrue},
		{`timeofday>="1331"`, ResultFalse},
		{`timeofday>="0800" and timeofday<"1700"`, ResultTrue},
		{`dayofweek="wed"`, ResultTrue},
		{`dayofweek="Mon, Tue"`, ResultFalse},
		{`dayofweek="sat,sun,wed"`, ResultTrue},
		{`dayofweek!="mon"`, ResultTrue},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			ctx := clientCtx("", "")
			ctx.h = h
			assert.Equal(t, tt.want, evalRule(t, tt.rule, ctx))
		})
	}
}

func TestDecodeTimeOfDay(t *testing.T) {
	n, err := decodeTimeOfDay("0905")
	require.NoError(t, err)
	assert.Equal(t, 905, n)

	n, err = decodeTimeOfDay("2359")
	require.NoError(t, err)
	assert.Equal(t, 2359, n)

	for _, v := range []string{"2400", "1260", "130", "12a0", "12:30"} {
		_, err := decodeTimeOfDay(v)
		assert.Error(t, err, v)
	}
}

func TestDecodeDayOfWeek(t *testing.T) {
	w, err := decodeDayOfWeek("sun, SAT")
	require.NoError(t, err)
	assert.True(t, w.has(time.Sunday))
	assert.True(t, w.has(time.Saturday))
	assert.False(t, w.has(time.Monday))

	_, err = decodeDayOfWeek("monday")
	assert.Error(t, err)
}
