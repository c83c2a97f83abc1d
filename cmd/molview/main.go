package main

import (
	"os"
	"runtime"
)

// GLFW must run on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
