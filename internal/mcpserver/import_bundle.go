package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/devflow/internal/bundle"
	"github.com/starford/devflow/internal/storage"
)

const maxBundleSize = 5 << 20 // 5 MB

var (
	yamlMIMETypes = map[string]bool{
		"application/yaml":   true,
		"application/x-yaml": true,
		"text/yaml":          true,
		"text/x-yaml":        true,
		"text/plain":         true,
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type importResult struct {
	SavedPath string `json:"savedPath"`
	Records   int    `json:"records"`
}

func (s *Server) importBundle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	rawURL := req.GetString("url", "")
	filename := req.GetString("filename", "")

	var data []byte
	switch {
	case content != "" && rawURL != "":
		return mcp.NewToolResultError("pass either content or url, not both"), nil
	case content != "":
		data = []byte(content)
	case strings.HasPrefix(rawURL, "data:"):
		var err error
		if data, err = decodeDataURI(rawURL); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	case rawURL != "":
		var err error
		if data, err = fetchHTTP(ctx, rawURL); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	default:
		return mcp.NewToolResultError("content or url is required"), nil
	}

	if len(data) > maxBundleSize {
		return mcp.NewToolResultError(fmt.Sprintf("bundle too large: %d bytes (max %d)", len(data), maxBundleSize)), nil
	}

	if filename == "" {
		filename = filenameFromURL(rawURL)
	}
	filename = sanitizeFilename(filename)
	if !storage.IsBundle(filename) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file extension: %s (allowed: yaml, yml)", filepath.Ext(filename))), nil
	}

	recs, err := bundle.Parse(filename, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, readErr := s.files.Read(filename); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("bundle already exists: %s", filename)), nil
	}
	if err := s.files.Write(filename, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save bundle: %v", err)), nil
	}
	if s.sync != nil {
		if err := s.sync(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("saved but import failed: %v", err)), nil
		}
	}

	out, _ := json.Marshal(importResult{SavedPath: filename, Records: recs.Len()})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI holding YAML.
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if mime != "" && !yamlMIMETypes[mime] {
		return nil, fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return data, nil
}

// fetchHTTP downloads a bundle from an HTTP/HTTPS URL with security checks.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}

	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxBundleSize {
		return nil, fmt.Errorf("bundle too large: exceeds %d bytes", maxBundleSize)
	}
	return data, nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}

// filenameFromURL takes the file name from an http URL, falling back to a UUID.
func filenameFromURL(rawURL string) string {
	if rawURL != "" && !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := path.Base(parsed.Path)
			if storage.IsBundle(base) {
				return base
			}
		}
	}
	return "import-" + uuid.NewString() + ".yaml"
}

// sanitizeFilename strips path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "import-" + uuid.NewString() + ".yaml"
	}
	return name
}
