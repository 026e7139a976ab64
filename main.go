package main

import "github.com/KaramelBytes/pedlens/cmd"

func main() {
	cmd.Execute()
}
