package main

import (
	"os"

	"github.com/ytget/yt-cli/internal/cli"
)

// version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
