package uploadclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// formBody streams a multipart form whose file part is read from disk. Its
// length is known up front because presigned POST targets reject chunked bodies.
type formBody struct {
	reader      io.Reader
	contentType string
	total       int64
	sent        int64
	onRead      func(sent, total int64)
}

func newFormBody(fields map[string]string, fileName, contentType string, file io.Reader, fileSize int64) (*formBody, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := mw.WriteField(name, fields[name]); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	if _, err := mw.CreatePart(header); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	prefix := append([]byte(nil), buf.Bytes()...)

	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}
	suffix := append([]byte(nil), buf.Bytes()...)

	return &formBody{
		reader:      io.MultiReader(bytes.NewReader(prefix), io.LimitReader(file, fileSize), bytes.NewReader(suffix)),
		contentType: mw.FormDataContentType(),
		total:       int64(len(prefix)) + fileSize + int64(len(suffix)),
	}, nil
}

func (b *formBody) Read(p []byte) (int, error) {
	n, err := b.reader.Read(p)
	if n > 0 {
		b.sent += int64(n)
		if b.onRead != nil {
			b.onRead(b.sent, b.total)
		}
	}
	return n, err
}

func (b *formBody) Len() int64 { return b.total }

func (b *formBody) ContentType() string { return b.contentType }

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func readSnippet(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return strings.TrimSpace(string(raw))
}
