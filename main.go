package main

import (
	cmd "github.com/rohmanhakim/vid-fetcher/internal/cli"
)

func main() {
	cmd.Execute()
}
