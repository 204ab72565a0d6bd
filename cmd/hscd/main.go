// hscd is an interactive weighted-feature search engine.
// Drag feature weights, watch the match density move, rank what is left.
package main

import (
	"os"

	"github.com/corey/hscd/cmd/hscd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
