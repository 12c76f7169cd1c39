package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// corpCodeDoc mirrors the corpCode.xml document inside the bulk archive.
type corpCodeDoc struct {
	XMLName xml.Name        `xml:"result"`
	List    []corpCodeEntry `xml:"list"`
}

type corpCodeEntry struct {
	CorpCode  string `xml:"corp_code"`
	CorpName  string `xml:"corp_name"`
	StockCode string `xml:"stock_code"`
}

// DownloadCorpCodes fetches the bulk corp-code archive and returns the
// symbol→corp code mapping for listed companies. Entries without a stock
// code are unlisted and skipped. Unlike the per-request methods this
// returns an error: callers cache the mapping and need to distinguish a
// failed refresh from an empty registry.
func (c *Client) DownloadCorpCodes(ctx context.Context) (map[string]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/corpCode.xml?crtfc_key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Msg("Downloading corp code archive")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("corp code download status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	// A credential error comes back as a small XML document, not a zip.
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("<")) {
		return nil, fmt.Errorf("corp code download rejected: %s", truncate(string(body), 120))
	}

	return parseCorpCodeArchive(body)
}

func parseCorpCodeArchive(data []byte) (map[string]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	var xmlFile *zip.File
	for _, f := range reader.File {
		if strings.HasSuffix(f.Name, ".xml") {
			xmlFile = f
			break
		}
	}
	if xmlFile == nil {
		return nil, fmt.Errorf("archive has no xml entry")
	}

	rc, err := xmlFile.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry: %w", err)
	}
	defer rc.Close()

	var doc corpCodeDoc
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse corp codes: %w", err)
	}

	codes := make(map[string]string)
	for _, entry := range doc.List {
		symbol := strings.TrimSpace(entry.StockCode)
		if symbol == "" {
			continue
		}
		codes[symbol] = strings.TrimSpace(entry.CorpCode)
	}

	if len(codes) == 0 {
		return nil, fmt.Errorf("corp code archive yielded no listed companies")
	}
	return codes, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
