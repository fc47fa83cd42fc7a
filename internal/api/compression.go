// Package api wires the gateway's gin.Engine: route registration, the
// model-list content-negotiation decision, and the compression middleware.
package api

import (
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// compressWriter lazily picks a compressor once the wrapped handler's
// first Write call reveals its Content-Type — gzip/brotli only ever
// apply to the non-streaming JSON responses ("compression
// middleware for non-streaming JSON"); SSE bodies pass through
// untouched since a chunked event stream forwarded through a block
// compressor would break the client's incremental read.
type compressWriter struct {
	gin.ResponseWriter
	encoding string
	cw       compressorCloser
	prepared bool
}

type compressorCloser interface {
	Write(p []byte) (int, error)
	Close() error
}

func (w *compressWriter) prepare() {
	if w.prepared {
		return
	}
	w.prepared = true
	if !strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		return
	}
	w.Header().Set("Content-Encoding", w.encoding)
	w.Header().Del("Content-Length")
	switch w.encoding {
	case "br":
		w.cw = brotli.NewWriterLevel(w.ResponseWriter, brotli.DefaultCompression)
	case "gzip":
		gz, _ := gzip.NewWriterLevel(w.ResponseWriter, gzip.DefaultCompression)
		w.cw = gz
	}
}

func (w *compressWriter) WriteHeader(code int) {
	w.prepare()
	w.ResponseWriter.WriteHeader(code)
}

func (w *compressWriter) Write(b []byte) (int, error) {
	w.prepare()
	if w.cw != nil {
		return w.cw.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *compressWriter) Close() {
	if w.cw != nil {
		_ = w.cw.Close()
	}
}

// Compression negotiates br over gzip over identity from Accept-Encoding
// and wraps the response writer accordingly. Grounded on the teacher's
// go.mod carrying both github.com/andybalholm/brotli and
// github.com/klauspost/compress as direct requires with no gin-contrib
// wrapper in between, implying hand-wired middleware over this pair
// rather than a third-party gin adapter.
func Compression() gin.HandlerFunc {
	return func(c *gin.Context) {
		enc := pickEncoding(c.GetHeader("Accept-Encoding"))
		if enc == "" {
			c.Next()
			return
		}
		cw := &compressWriter{ResponseWriter: c.Writer, encoding: enc}
		c.Writer = cw
		defer cw.Close()
		c.Next()
	}
}

func pickEncoding(acceptEncoding string) string {
	switch {
	case strings.Contains(acceptEncoding, "br"):
		return "br"
	case strings.Contains(acceptEncoding, "gzip"):
		return "gzip"
	default:
		return ""
	}
}
