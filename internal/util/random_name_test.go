package util

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRandomName(t *testing.T) {
	a := assert.New(t)

	random = rand.New(rand.NewSource(0)) // nolint:gosec
	name := GetRandomName()

	parts := strings.SplitN(name, " ", 2)
	a.Len(parts, 2)
	a.Contains(adjectives, parts[0])
	a.Contains(animals, parts[1])
}
