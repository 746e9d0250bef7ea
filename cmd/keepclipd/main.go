// Command keepclipd runs the keepclip rolling A/V buffer as a headless
// daemon: it wires configuration, logging, metrics, and the core
// SyncedAVBuffer together, and exposes an HTTP trigger for on-demand
// clip extraction.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
