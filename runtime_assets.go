package inlineform

import (
	"embed"
	"io/fs"
)

//go:embed pkg/runtime/assets/*.js
var embeddedRuntimeAssets embed.FS

// RuntimeAssetsFS exposes the browser script that posts widget actions to the
// ajax component and swaps the returned wrapper markup.
//
// Typical mount:
//
//	mux.Handle("/inlineform/assets/",
//	  http.StripPrefix("/inlineform/assets/",
//	    http.FileServerFS(inlineform.RuntimeAssetsFS()),
//	  ),
//	)
func RuntimeAssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedRuntimeAssets, "pkg/runtime/assets")
	if err != nil {
		return embeddedRuntimeAssets
	}
	return sub
}
