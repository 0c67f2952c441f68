package http

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriters = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

var gzipReaders = sync.Pool{
	New: func() any {
		return new(gzip.Reader)
	},
}

// withGZip decompresses gzip request bodies and, when the client accepts
// it, compresses responses. Encrypted payloads compress poorly but their
// JSON envelopes do not, so batch uploads still benefit. Writers and
// readers are pooled across requests.
func withGZip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.Contains(req.Header.Get("Content-Encoding"), "gzip") && req.Body != nil {
			if !decompressBody(w, req) {
				return
			}
		}

		if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, req)
			return
		}

		zw := gzipWriters.Get().(*gzip.Writer)
		zw.Reset(w)

		next.ServeHTTP(&compressedResponse{ResponseWriter: w, zw: zw}, req)

		zw.Close()
		gzipWriters.Put(zw)
	})
}

// decompressBody swaps the request body for its decompressed stream. It
// answers 400 itself and reports false when the body is not valid gzip.
func decompressBody(w http.ResponseWriter, req *http.Request) bool {
	zr := gzipReaders.Get().(*gzip.Reader)
	if err := zr.Reset(req.Body); err != nil {
		gzipReaders.Put(zr)
		http.Error(w, "invalid gzip body", http.StatusBadRequest)
		return false
	}

	req.Body = &pooledBody{Reader: zr, release: func() {
		zr.Close()
		gzipReaders.Put(zr)
	}}
	req.Header.Del("Content-Encoding")

	return true
}

// pooledBody returns its gzip reader to the pool exactly once, on Close.
type pooledBody struct {
	io.Reader
	release func()
}

func (b *pooledBody) Close() error {
	if b.release != nil {
		b.release()
		b.release = nil
	}
	return nil
}

type compressedResponse struct {
	http.ResponseWriter
	zw *gzip.Writer
}

func (w *compressedResponse) WriteHeader(statusCode int) {
	w.Header().Set("Content-Encoding", "gzip")
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *compressedResponse) Write(data []byte) (int, error) {
	return w.zw.Write(data)
}
