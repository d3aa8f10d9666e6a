package web

import (
	"embed"
	"io/fs"
)

// 前端控制台的静态资源，构建产物放在 dist 目录下
//
//go:embed all:dist
var dist embed.FS

func Assets() fs.FS {
	sub, _ := fs.Sub(dist, "dist")
	return sub
}
