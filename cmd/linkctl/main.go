// Command linkctl manages internal link annotations and link targets.
package main

import "github.com/mesh-intelligence/internallink/internal/cli"

func main() {
	cli.Execute()
}
