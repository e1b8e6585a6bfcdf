package main

import "github.com/Nicholas-Amsler/lung-iq/internal/cmd"

func main() {
	cmd.Execute()
}
