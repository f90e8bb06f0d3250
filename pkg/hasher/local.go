package hasher

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// LocalService derives the hash in-process: canonical JSON of the
// descriptor, raw DEFLATE, then unpadded base64url.
type LocalService struct{}

// Hash encodes d. It fails only if ctx is already done.
func (LocalService) Hash(ctx context.Context, d Descriptor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &HashServiceError{Service: "local", Err: err}
	}
	if d.SelectedDeps == nil {
		d.SelectedDeps = [][2]any{}
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return "", &HashServiceError{Service: "local", Err: err}
	}

	var buf bytes.Buffer
	if err := deflate(&buf, payload); err != nil {
		return "", &HashServiceError{Service: "local", Err: err}
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// deflate writes payload to dst as raw DEFLATE.
func deflate(dst io.Writer, payload []byte) error {
	w, err := flate.NewWriter(dst, flate.BestCompression)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return fmt.Errorf("compressing descriptor: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flushing descriptor: %w", err)
	}
	return nil
}

// DecodeLocal reverses LocalService.Hash.
func DecodeLocal(hash string) (Descriptor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(hash)
	if err != nil {
		return Descriptor{}, fmt.Errorf("decode hash: %w", err)
	}
	payload, err := io.ReadAll(io.LimitReader(flate.NewReader(bytes.NewReader(raw)), 1<<20))
	if err != nil {
		return Descriptor{}, fmt.Errorf("inflate hash: %w", err)
	}
	var d Descriptor
	if err := json.Unmarshal(payload, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse hash payload: %w", err)
	}
	return d, nil
}
