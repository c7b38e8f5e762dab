// Package s3mirror uploads snapshot and log files to an S3-compatible
// bucket (AWS S3, Cloudflare R2, MinIO). Uploads are fire-and-forget from
// the caller's point of view; a bounded queue and worker pool keep the sim
// side non-blocking.
package s3mirror

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	sigV4Algorithm = "AWS4-HMAC-SHA256"
	sigV4Region    = "auto"
	sigV4Service   = "s3"
)

type Config struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string

	// DataDir is the local root; object keys are paths relative to it,
	// optionally under Prefix.
	DataDir string
	Prefix  string

	Workers   int
	QueueSize int
}

type Mirror struct {
	cfg    Config
	base   string
	http   *http.Client
	logger *log.Logger

	jobs chan string
	wg   sync.WaitGroup

	uploaded atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

func New(cfg Config, logger *log.Logger) (*Mirror, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("endpoint/bucket/access key/secret key are required")
	}
	ep := cfg.Endpoint
	if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
		ep = "https://" + ep
	}
	u, err := url.Parse(ep)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint: %s", cfg.Endpoint)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	cfg.Prefix = strings.Trim(strings.ReplaceAll(cfg.Prefix, "\\", "/"), "/")

	m := &Mirror{
		cfg:    cfg,
		base:   strings.TrimRight(u.String(), "/"),
		http:   &http.Client{Timeout: 2 * time.Minute},
		logger: logger,
		jobs:   make(chan string, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for p := range m.jobs {
				m.uploadOne(p)
			}
		}()
	}
	return m, nil
}

// Enqueue schedules a local file for upload. Never blocks; when the queue is
// full the file is skipped and counted.
func (m *Mirror) Enqueue(localPath string) {
	if m == nil {
		return
	}
	select {
	case m.jobs <- localPath:
	default:
		n := m.dropped.Add(1)
		m.printf("mirror queue full, skipping %s (skipped_total=%d)", localPath, n)
	}
}

func (m *Mirror) Close() {
	if m == nil {
		return
	}
	close(m.jobs)
	m.wg.Wait()
}

type Stats struct {
	QueueDepth int
	Uploaded   uint64
	Failed     uint64
	Dropped    uint64
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth: len(m.jobs),
		Uploaded:   m.uploaded.Load(),
		Failed:     m.failed.Load(),
		Dropped:    m.dropped.Load(),
	}
}

func (m *Mirror) uploadOne(localPath string) {
	key, err := m.objectKey(localPath)
	if err != nil {
		m.printf("mirror skip %s: %v", localPath, err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		lastErr = m.put(ctx, key, localPath)
		cancel()
		if lastErr == nil {
			m.uploaded.Add(1)
			return
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	m.failed.Add(1)
	m.printf("mirror upload failed key=%s: %v", key, lastErr)
}

func (m *Mirror) objectKey(localPath string) (string, error) {
	absBase, err := filepath.Abs(m.cfg.DataDir)
	if err != nil {
		return "", err
	}
	absLocal, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absLocal)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the data dir", absLocal)
	}
	if m.cfg.Prefix != "" {
		rel = path.Join(m.cfg.Prefix, rel)
	}
	return rel, nil
}

// put signs and sends a single PUT Object request (AWS signature v4,
// unchunked payload).
func (m *Mirror) put(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	payloadHash := hex.EncodeToString(h.Sum(nil))
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	canonicalURI := "/" + m.cfg.Bucket + "/" + escapePath(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.base+canonicalURI, f)
	if err != nil {
		return err
	}
	host := req.URL.Host
	req.Header.Set("Host", host)
	req.Header.Set("x-amz-content-sha256", payloadHash)
	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = st.Size()

	signedHeaders := "host;x-amz-content-sha256;x-amz-date"
	canonicalRequest := strings.Join([]string{
		http.MethodPut,
		canonicalURI,
		"",
		"host:" + host + "\nx-amz-content-sha256:" + payloadHash + "\nx-amz-date:" + amzDate + "\n",
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := dateStamp + "/" + sigV4Region + "/" + sigV4Service + "/aws4_request"
	crSum := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := strings.Join([]string{
		sigV4Algorithm,
		amzDate,
		scope,
		hex.EncodeToString(crSum[:]),
	}, "\n")

	kDate := hmacSHA256([]byte("AWS4"+m.cfg.SecretAccessKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(sigV4Region))
	kService := hmacSHA256(kRegion, []byte(sigV4Service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))
	signature := hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))

	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		sigV4Algorithm, m.cfg.AccessKeyID, scope, signedHeaders, signature,
	))

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
	return fmt.Errorf("put status=%d key=%s body=%s", resp.StatusCode, key, strings.TrimSpace(string(body)))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.Join(parts, "/")
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	_, _ = h.Write(data)
	return h.Sum(nil)
}

func (m *Mirror) printf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
