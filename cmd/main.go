package main

import (
	"github.com/dasdy/keyoverlay/cmd/keyoverlay"
)

func main() {
	keyoverlay.Execute()
}
