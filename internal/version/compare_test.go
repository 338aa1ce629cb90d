package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"9.0.0.0.1", "9.2.0.0.1", -1},
		{"9.2.0.0.1", "9.0.0.0.1", 1},
		{"10.0.0.0.1.1535735448", "10.0.0.0.1.1535735448", 0},
		{"9.10", "9.9", 1},
		{"1.0", "1.0.0", -1},
		{"1.007", "1.7", 0},
		{"10.0.0b2", "10.0.0", 1},
		{"10.0.0a", "10.0.0b", -1},
		{"1.0.1", "1.0.a", -1},
		{"", "0", -1},
		{"", "", 0},
		{"123456789012345678901234567890", "123456789012345678901234567891", -1},
		{"1-2", "1.2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a), "comparison must be antisymmetric")
		})
	}
}

func TestCompareIsTransitive(t *testing.T) {
	versions := []string{
		"", "0", "1", "1.0", "1.0.0", "1.0.0a", "1.0.0b", "1.0.1", "1.a",
		"9.0.0.0.1", "9.2.0.0.1", "10", "10.0.0b2", "abc", "abc.1", "9.10",
	}

	for _, a := range versions {
		for _, b := range versions {
			for _, c := range versions {
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
					assert.LessOrEqual(t, Compare(a, c), 0, "%q <= %q <= %q", a, b, c)
				}
			}
		}
	}
}

func TestCompareIsStable(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, Compare("9.2.0.0.1", "9.0.0.0.1"))
	}
}

func TestGreater(t *testing.T) {
	assert.True(t, Greater("9.2", "9.0"))
	assert.False(t, Greater("9.2", "9.2"))
	assert.False(t, Greater("9.0", "9.2"))
}

func TestSeparatorsAreNotSignificant(t *testing.T) {
	assert.Equal(t, 0, Compare("1.0a", "1.0.a"))
	assert.Equal(t, 0, Compare("1-2", "1.2"))
	assert.False(t, Greater("1.0.a", "1.0a"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "10.0.0", Truncate("10.0.0.0.1.1535735448", 3))
	assert.Equal(t, "9.2", Truncate("9.2", 3))
	assert.Equal(t, "10", Truncate("10.13.6", 1))
	assert.Equal(t, "", Truncate("10.13.6", 0))
}
