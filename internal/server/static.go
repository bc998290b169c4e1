package server

import (
	"embed"

	"github.com/gin-contrib/static"
)

//go:embed web
var webAssets embed.FS

// webFileSystem serves the embedded control panel from the web/ root.
func webFileSystem() static.ServeFileSystem {
	return static.EmbedFolder(webAssets, "web")
}
