package main

import (
	"testing"

	_ "github.com/ngtax/ngtax/internal/testing/guard"
)

func TestMainSkipsInTestMode(t *testing.T) {
	main()
}
