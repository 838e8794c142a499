package main

import "github.com/taurusgroup/crt-paillier/cmd"

func main() {
	cmd.Execute()
}
