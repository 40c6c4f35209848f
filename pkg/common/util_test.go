package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 20, ParseLimit("", 20, 500))
	assert.Equal(t, 20, ParseLimit("abc", 20, 500))
	assert.Equal(t, 20, ParseLimit("-3", 20, 500))
	assert.Equal(t, 20, ParseLimit("0", 20, 500))
	assert.Equal(t, 7, ParseLimit("7", 20, 500))
	assert.Equal(t, 500, ParseLimit("10000", 20, 500))
}

func TestReducer(t *testing.T) {
	sum := Reducer([]int{2, 4, 6}, func(acc int, i int) int { return acc + i }, 0)
	assert.Equal(t, 12, sum)
}
