package main

import "github.com/llehouerou/ncstream/cmd"

func main() {
	cmd.Execute()
}
