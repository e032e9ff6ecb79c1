package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haesinais/aisdash/internal/vessel"
)

func records(mmsis ...int64) []vessel.Record {
	out := make([]vessel.Record, 0, len(mmsis))
	for i, m := range mmsis {
		out = append(out, vessel.Record{ID: int64(i + 1), MMSI: m})
	}
	return out
}

func mmsisOf(list []vessel.Record) []int64 {
	out := make([]int64, 0, len(list))
	for _, r := range list {
		out = append(out, r.MMSI)
	}
	return out
}

func TestFilterSubstring(t *testing.T) {
	list := records(199, 299, 300)
	assert.Equal(t, []int64{199, 299}, mmsisOf(Filter(list, "99")))
}

func TestFilterEmptyTermReturnsList(t *testing.T) {
	list := records(3, 1, 2)
	for _, term := range []string{"", " ", "\t\n"} {
		assert.Equal(t, list, Filter(list, term))
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	list := records(440100, 123, 440200, 44, 9440)
	assert.Equal(t, []int64{440100, 440200, 44, 9440}, mmsisOf(Filter(list, "44")))
	assert.Empty(t, Filter(list, "777"))
	assert.NotNil(t, Filter(list, "777"))
}

func TestFilterIsPlainSubstring(t *testing.T) {
	list := records(123456)
	// No tokenization and no trimming of a non-empty term
	assert.Empty(t, Filter(list, "12 34"))
	assert.Empty(t, Filter(list, " 123"))
	assert.Len(t, Filter(list, "3456"), 1)
}
