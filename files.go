package wsrouter

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
)

// fileHandler serves a single file with an md5 ETag, answering 304 when the client already has it.
func fileHandler(fsys fs.FS, name string) Handler {
	return func(req *Request, res *Response) {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, fs.ErrNotExist) {
				status = http.StatusNotFound
			}
			writeErrorPage(req, res, status)
			return
		}

		etag := fmt.Sprintf(`"%x"`, md5.Sum(b))
		res.Header.Set("ETag", etag)
		if req.Headers.Get("If-None-Match") == etag {
			res.Status = http.StatusNotModified
			_ = res.Send()
			return
		}

		if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
			res.Header.Set("Content-Type", ct)
		}
		res.Body = b
		_ = res.Send()
	}
}
