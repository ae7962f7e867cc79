package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToInt64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
	}{
		{int64(42), 42},
		{int32(7), 7},
		{[]byte("1234"), 1234},
		{" 99 ", 99},
		{float64(3), 3},
	}
	for _, c := range cases {
		got, err := ConvertToInt64(c.in)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c.want, *got)
	}

	got, err := ConvertToInt64(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ConvertToInt64(struct{}{})
	assert.Error(t, err)
}

func TestConvertToDecimal(t *testing.T) {
	d, err := ConvertToDecimal("3.50000000000000")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "3.50000000000000", RenderDecimal(d))

	d, err = ConvertToDecimal([]byte("3.5"))
	require.NoError(t, err)
	assert.Equal(t, "3.5", RenderDecimal(d))

	d, err = ConvertToDecimal(nil)
	require.NoError(t, err)
	assert.Equal(t, None, RenderDecimal(d))

	_, err = ConvertToDecimal("not-a-number")
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	utc := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	assert.Equal(t, "2024-03-09 14:05:06+00:00", FormatTimestamp(utc))

	withMicros := time.Date(2024, 3, 9, 14, 5, 6, 123456000, time.FixedZone("", 2*3600))
	assert.Equal(t, "2024-03-09 14:05:06.123456+02:00", FormatTimestamp(withMicros))

	assert.Equal(t, None, FormatTimestamp(time.Time{}))
}

func TestConvertDateTime(t *testing.T) {
	got, err := ConvertDateTime("2024-03-09T14:05:06Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)))

	got, err = ConvertDateTime(int64(0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Unix())

	_, err = ConvertDateTime("yesterday")
	assert.Error(t, err)
}

func TestRenderNilValues(t *testing.T) {
	assert.Equal(t, None, RenderString(nil))
	assert.Equal(t, None, RenderInt(nil))

	s := "%"
	n := int64(1)
	assert.Equal(t, "%", RenderString(&s))
	assert.Equal(t, "1", RenderInt(&n))
}
