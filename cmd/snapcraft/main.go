package main

import "github.com/medubelko/snapcraft/pkg/cmd"

func main() {
	cmd.Execute()
}
