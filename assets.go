package formembed

import (
	"io/fs"

	"github.com/goliatone/go-formembed/pkg/renderers/vanilla"
)

// EmbedAssetsFS exposes the browser loader script and widget stylesheet so
// Go applications can serve them without importing the renderer package.
//
// Typical mount:
//
//	mux.Handle("/embed/",
//	  http.StripPrefix("/embed/",
//	    http.FileServerFS(formembed.EmbedAssetsFS()),
//	  ),
//	)
func EmbedAssetsFS() fs.FS {
	return vanilla.AssetsFS()
}

// EmbeddedTemplates exposes the built-in widget templates so callers can
// copy or extend them.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}
