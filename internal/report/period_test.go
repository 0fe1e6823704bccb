package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthWindow(t *testing.T) {
	label, first, last := monthWindow(2025, 8)

	assert.Equal(t, "2025-08", label)
	assert.Equal(t, 2025, first.Year())
	assert.Equal(t, time.August, first.Month())
	assert.Equal(t, 1, first.Day())
	assert.Equal(t, 31, last.Day())
}

func TestMonthWindowFebruaryLeapYear(t *testing.T) {
	_, _, last := monthWindow(2024, 2)
	assert.Equal(t, 29, last.Day())

	_, _, last = monthWindow(2025, 2)
	assert.Equal(t, 28, last.Day())
}
