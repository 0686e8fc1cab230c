package main

import "github.com/RyanBlaney/radio-sampler/cmd"

func main() {
	cmd.Execute()
}
