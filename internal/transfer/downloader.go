package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lincolnep/xcode-tools/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// partSuffix marks an incomplete download next to its destination
const partSuffix = ".part"

// Downloader transfers a package to a local path.
type Downloader interface {
	// Download fetches src into dest, resuming a previous partial transfer
	// when possible. The returned text describes what happened and is
	// meant for diagnostics.
	Download(ctx context.Context, src, dest string, quiet bool) (string, error)
}

// HTTPDownloader implements Downloader over HTTP with range-based resume
type HTTPDownloader struct {
	client   *http.Client
	progress io.Writer
}

// NewHTTPDownloader creates a downloader. Progress bars are drawn on
// progress unless a download is quiet or progress is nil.
func NewHTTPDownloader(client *http.Client, progress io.Writer) *HTTPDownloader {
	return &HTTPDownloader{client: client, progress: progress}
}

// Download implements Downloader. Data is written to dest+".part" and only
// renamed to dest once the transfer completes, so an existing dest is
// always a complete file.
func (d *HTTPDownloader) Download(ctx context.Context, src, dest string, quiet bool) (string, error) {
	if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	part := dest + partSuffix
	offset, err := partialSize(part)
	if err != nil {
		return "", err
	}

	resp, offset, err := d.openResumable(ctx, src, offset)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(part, flags, 0644)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", part, err)
	}

	var w io.Writer = out
	var bar *progressbar.ProgressBar
	if !quiet && d.progress != nil {
		bar = newBar(d.progress, filepath.Base(dest), resp.ContentLength, offset)
		w = io.MultiWriter(out, bar)
	}

	written, copyErr := io.Copy(w, resp.Body)
	closeErr := out.Close()
	if bar != nil {
		_ = bar.Finish()
	}
	if copyErr != nil {
		return "", &TransferError{URL: src, Err: copyErr}
	}
	if closeErr != nil {
		return "", fmt.Errorf("closing %s: %w", part, closeErr)
	}

	if err := os.Rename(part, dest); err != nil {
		return "", fmt.Errorf("finalizing %s: %w", dest, err)
	}

	if offset > 0 {
		return fmt.Sprintf("%s: resumed at byte %d, wrote %d bytes", dest, offset, written), nil
	}
	return fmt.Sprintf("%s: wrote %d bytes", dest, written), nil
}

// openResumable requests src from offset. It falls back to a full transfer
// when the server ignores or rejects the range.
func (d *HTTPDownloader) openResumable(ctx context.Context, src string, offset int64) (*http.Response, int64, error) {
	if offset == 0 {
		resp, err := open(ctx, d.client, src, nil)
		return resp, 0, err
	}

	header := http.Header{}
	header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	resp, err := open(ctx, d.client, src, header, http.StatusOK, http.StatusPartialContent)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusRequestedRangeNotSatisfiable {
			logrus.Debugf("Server rejected resume of %s at %d, restarting", src, offset)
			resp, err = open(ctx, d.client, src, nil)
			return resp, 0, err
		}
		return nil, 0, err
	}

	if resp.StatusCode == http.StatusOK {
		logrus.Debugf("Server ignored range for %s, restarting", src)
		return resp, 0, nil
	}
	logrus.Debugf("Resuming %s at byte %d", src, offset)
	return resp, offset, nil
}

func partialSize(part string) (int64, error) {
	info, err := os.Stat(part)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("checking %s: %w", part, err)
	}
	return info.Size(), nil
}

func newBar(w io.Writer, name string, contentLength, offset int64) *progressbar.ProgressBar {
	total := int64(-1)
	if contentLength >= 0 {
		total = contentLength + offset
	}

	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(fmt.Sprintf("downloading %s", name)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
	)
	if offset > 0 {
		_ = bar.Add64(offset)
	}
	return bar
}
