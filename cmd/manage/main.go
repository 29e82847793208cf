package main

import (
	"fmt"
	"os"

	"rachiohook/internal/platform/config"
	"rachiohook/internal/platform/rachio"
)

func main() {
	root := newRootCmd(func(cfg config.RachioConfig) RachioAPI {
		return rachio.New(cfg)
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
