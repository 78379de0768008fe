// internal/fastq/open.go
package fastq

import (
	"io"
	"os"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/klauspost/pgzip"
)

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open opens a FASTQ file for streaming. "-" means stdin. Gzip input is
// detected by magic number (1F 8B) or a .gz suffix and decompressed with
// pgzip.
func Open(path string) (io.ReadCloser, error) {
	rc, _, err := open(path, false)
	return rc, err
}

// OpenProgress is Open with a byte-level progress bar attached beneath the
// decompression layer, so the bar tracks on-disk bytes regardless of
// compression. The bar is nil for stdin.
func OpenProgress(path string) (io.ReadCloser, *pb.ProgressBar, error) {
	return open(path, true)
}

func open(path string, progress bool) (io.ReadCloser, *pb.ProgressBar, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var sig [2]byte
	n, _ := fh.Read(sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		_ = fh.Close()
		return nil, nil, err
	}

	var bar *pb.ProgressBar
	var r io.Reader = fh
	if progress {
		if st, serr := fh.Stat(); serr == nil {
			bar = pb.Full.Start64(st.Size())
			bar.Set(pb.Bytes, true)
			r = bar.NewProxyReader(fh)
		}
	}

	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := pgzip.NewReader(r)
		if err != nil {
			_ = fh.Close()
			return nil, nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, bar, nil
	}
	return &multiReadCloser{Reader: r, closers: []io.Closer{fh}}, bar, nil
}
