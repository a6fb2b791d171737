package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/school-directory/internal/ingest"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		want *bool
	}{
		{"1", ptr(true)},
		{" TRUE ", ptr(true)},
		{"yes", ptr(true)},
		{"Y", ptr(true)},
		{"1.0", ptr(true)},
		{"0", ptr(false)},
		{"false", ptr(false)},
		{"No", ptr(false)},
		{"n", ptr(false)},
		{"0.0", ptr(false)},
		{"", nil},
		{"maybe", nil},
		{"2", nil},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ingest.ParseBool(tc.in))
		})
	}
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, ptr(1234), ingest.ParseCount("1234"))
	assert.Equal(t, ptr(1234), ingest.ParseCount(" 1234.0 "))
	assert.Equal(t, ptr(0), ingest.ParseCount("0"))
	assert.Nil(t, ingest.ParseCount("-1"))
	assert.Nil(t, ingest.ParseCount("12.5"))
	assert.Nil(t, ingest.ParseCount("n/a"))
	assert.Equal(t, ptr(2147483647), ingest.ParseCount("2147483647"))
	assert.Nil(t, ingest.ParseCount("2147483648"))
	assert.Nil(t, ingest.ParseCount("3000000000"))
	assert.Nil(t, ingest.ParseCount("3000000000.0"))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, ptr(52.5), ingest.ParseFloat("52.5"))
	assert.Nil(t, ingest.ParseFloat(""))
	assert.Nil(t, ingest.ParseFloat("NaN"))
	assert.Nil(t, ingest.ParseFloat("north"))
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, ptr("https://school.nl"), ingest.NormalizeURL("school.nl"))
	assert.Equal(t, ptr("http://school.nl"), ingest.NormalizeURL(" http://school.nl "))
	assert.Equal(t, ptr("HTTPS://school.nl"), ingest.NormalizeURL("HTTPS://school.nl"))
	assert.Nil(t, ingest.NormalizeURL(""))
	assert.Nil(t, ingest.NormalizeURL("nan"))
}
