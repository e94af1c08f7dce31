package main

import (
	"github.com/bjpl/describe-it-sub001/cmd"
	"github.com/bjpl/describe-it-sub001/internal/logger"
)

func main() {
	defer logger.Sync()
	cmd.Execute()
}
