package main

import (
	"github.com/sjzar/keyharvest/cmd/keyharvest"
)

func main() {
	keyharvest.Execute()
}
