// Command ecoscan scores garment compositions and exports curated picks
// without running the server.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
