//go:build tinygo

package main

import (
	"quill/app"
	"quill/hal"
)

func main() {
	app.Run(hal.New())
}
