package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := map[string]struct {
		size int64
		exp  string
	}{
		"No output.":                         {size: 0, exp: "0 B"},
		"A negative size should be zero.":    {size: -1, exp: "0 B"},
		"A single line.":                     {size: 4, exp: "4 B"},
		"Right below a kilobyte.":            {size: 1023, exp: "1023 B"},
		"A kilobyte.":                        {size: 1024, exp: "1.0 KB"},
		"A partial kilobyte.":                {size: 2560, exp: "2.5 KB"},
		"A big build log.":                   {size: 12 * 1024 * 1024, exp: "12.0 MB"},
		"Gigabytes of output.":               {size: 3 * 1024 * 1024 * 1024, exp: "3.0 GB"},
		"Sizes past terabytes should stick.": {size: 2048 * 1024 * 1024 * 1024 * 1024, exp: "2048.0 TB"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, FormatBytes(test.size))
		})
	}
}
