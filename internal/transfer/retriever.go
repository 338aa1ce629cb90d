package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/lincolnep/xcode-tools/internal/utils"
	"github.com/sirupsen/logrus"
)

// Retriever fetches a small document and hands it to consume. Any temporary
// storage used for the document is released before Retrieve returns,
// whether or not consume succeeds.
type Retriever interface {
	Retrieve(ctx context.Context, rawURL string, consume func(io.Reader) error) error
}

// ScratchRetriever spools documents into a scratch directory.
type ScratchRetriever struct {
	Client *http.Client
	Dir    string
}

// NewScratchRetriever creates a retriever writing into dir
func NewScratchRetriever(client *http.Client, dir string) *ScratchRetriever {
	return &ScratchRetriever{Client: client, Dir: dir}
}

// Retrieve downloads rawURL into a uniquely named file under Dir, passes the
// file to consume and removes it afterwards.
func (r *ScratchRetriever) Retrieve(ctx context.Context, rawURL string, consume func(io.Reader) error) error {
	if err := utils.EnsureDir(r.Dir); err != nil {
		return fmt.Errorf("creating scratch directory %s: %w", r.Dir, err)
	}

	f, err := os.CreateTemp(r.Dir, path.Base(rawURL)+".*")
	if err != nil {
		return fmt.Errorf("creating scratch file: %w", err)
	}
	defer func() {
		f.Close()
		utils.RemoveQuietly(f.Name())
	}()

	logrus.Debugf("Retrieving %s into %s", rawURL, f.Name())
	if err := get(ctx, r.Client, rawURL, f); err != nil {
		return err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding %s: %w", f.Name(), err)
	}
	return consume(f)
}

// MemoryRetriever streams documents straight from the response body and
// never touches the filesystem.
type MemoryRetriever struct {
	Client *http.Client
}

// NewMemoryRetriever creates a retriever that keeps documents in memory
func NewMemoryRetriever(client *http.Client) *MemoryRetriever {
	return &MemoryRetriever{Client: client}
}

// Retrieve passes the response body for rawURL to consume.
func (r *MemoryRetriever) Retrieve(ctx context.Context, rawURL string, consume func(io.Reader) error) error {
	resp, err := open(ctx, r.Client, rawURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	logrus.Debugf("Retrieving %s into memory", rawURL)
	return consume(resp.Body)
}

// get copies the body at rawURL into w
func get(ctx context.Context, client *http.Client, rawURL string, w io.Writer) error {
	resp, err := open(ctx, client, rawURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &TransferError{URL: rawURL, Err: err}
	}
	return nil
}

// open issues a GET and checks for a 200 (or, when accept lists them, any
// of the accepted statuses).
func open(ctx context.Context, client *http.Client, rawURL string, header http.Header, accept ...int) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransferError{URL: rawURL, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(newRequest(req))
	if err != nil {
		return nil, &TransferError{URL: rawURL, Err: err}
	}

	if len(accept) == 0 {
		accept = []int{http.StatusOK}
	}
	for _, code := range accept {
		if resp.StatusCode == code {
			return resp, nil
		}
	}
	resp.Body.Close()
	return nil, &TransferError{URL: rawURL, Err: &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}}
}
