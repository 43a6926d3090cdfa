package main

import "github.com/oaflow/oaflow/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
