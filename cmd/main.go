// Package main is the entry point of goplayer, a headless media player.
//
// goplayer drives a media engine (a simulated pipeline or a Music Player Daemon)
// through the playback control core: a playlist, a single-owner state machine and
// an ordered event reconciler. The session is restored on start and saved on exit.
//
// Build:
//
//	go build -o build/goplayer ./cmd
//
// Run:
//
//	./build/goplayer play ~/Music/album
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
