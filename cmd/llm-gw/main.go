// Command llm-gw runs the local AI gateway.
package main

import "github.com/nghyane/llm-gw/internal/cli"

func main() {
	cli.Execute()
}
