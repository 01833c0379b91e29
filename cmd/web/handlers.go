package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tomz197/cubesketch/internal/scene"
)

const (
	previewWidth  = 320
	previewHeight = 240
)

func pageHandler(sshHost string) http.HandlerFunc {
	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", sshHost)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}
}

// cubeHandler serves a freshly posed cube, the same picture players memorize.
func cubeHandler(w http.ResponseWriter, r *http.Request) {
	renderer := scene.NewRenderer()
	renderer.Configure(previewWidth, previewHeight, 1)
	renderer.RandomizePose()

	png, err := renderer.Snapshot()
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
