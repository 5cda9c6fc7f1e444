// Command sdex queries and transforms YAML, JSON and TOML documents
// with a jq-inspired expression language.
package main

import "github.com/sdex/sdex/cli"

func main() {
	cli.Main()
}
