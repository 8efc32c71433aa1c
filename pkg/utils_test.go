package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("k10temp", []string{"coretemp", "k10temp"}))
	assert.True(t, ContainsAny("nvme-pci-0100", []string{"nvme*"}))
	assert.False(t, ContainsAny("acpitz", []string{"coretemp", "nvme*"}))
}

func TestPercent(t *testing.T) {
	assert.InDelta(t, 25.0, Percent(1, 4), 1e-9)
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 0.0, Percent(5, -1))
}

func TestOrUnknown(t *testing.T) {
	assert.Equal(t, Unknown, OrUnknown("  "))
	assert.Equal(t, "x86_64", OrUnknown(" x86_64 "))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3.14, Round(3.14159, 2))
}
