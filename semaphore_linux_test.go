//go:build linux

package threadsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEventfdCount(t *testing.T) {
	for _, tc := range [...]struct {
		name string
		info string
		want int
	}{
		{`padded`, "pos:\t0\nflags:\t02004002\nmnt_id:\t15\nino:\t1057\neventfd-count:                3\neventfd-id: 12\neventfd-semaphore: 1\n", 3},
		{`hex`, "eventfd-count: 1f\n", 31},
		{`large`, "eventfd-count:         7fffffff\n", 0x7fffffff},
		{`no newline`, `eventfd-count: 0`, 0},
		{`missing`, "pos:\t0\nflags:\t02004002\n", -1},
		{`malformed`, "eventfd-count: zz\n", -1},
		{`empty`, ``, -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseEventfdCount([]byte(tc.info)))
		})
	}
}
