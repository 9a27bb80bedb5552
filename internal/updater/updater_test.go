package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
)

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"v1.2.3", "1.2.3"},
		{"1.2.3", "1.2.3"},
		{"", ""},
		{"v", ""},
		{"vv1.0.0", "v1.0.0"}, // only one leading v is stripped
	}
	for _, tt := range tests {
		if got := normalizeVersion(tt.input); got != tt.want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    bool
	}{
		{"newer patch", "0.2.0", "0.2.1", true},
		{"newer minor", "0.2.0", "0.3.0", true},
		{"newer major", "0.2.0", "1.0.0", true},
		{"same version", "0.2.0", "0.2.0", false},
		{"older version", "0.3.0", "0.2.0", false},
		{"empty current", "", "0.2.0", false},
		{"empty latest", "0.2.0", "", false},
		{"dev build", "dev", "0.2.0", false},
		{"two part current", "0.2", "0.3.0", true},
		{"double digit minor", "0.9.0", "0.10.0", true},
		{"major jump", "1.9.9", "2.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNewer(tt.current, tt.latest); got != tt.want {
				t.Errorf("isNewer(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
			}
		})
	}
}

func TestParseIntSafe(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"0", 0},
		{"42", 42},
		{"", 0},
		{"abc", 0},
		{"3rc1", 3}, // stops at the first non-digit
	}
	for _, tt := range tests {
		if got := parseIntSafe(tt.input); got != tt.want {
			t.Errorf("parseIntSafe(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestBuildAssetName(t *testing.T) {
	ext := "tar.gz"
	if runtime.GOOS == "windows" {
		ext = "zip"
	}
	want := "jama-mcp_0.3.0_" + runtime.GOOS + "_" + runtime.GOARCH + "." + ext
	if got := buildAssetName("0.3.0"); got != want {
		t.Errorf("buildAssetName = %q, want %q", got, want)
	}
}

// newReleaseServer serves a fake latest-release document.
func newReleaseServer(t *testing.T, release ReleaseInfo, statusCode int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(statusCode)
		if statusCode == http.StatusOK {
			if err := json.NewEncoder(w).Encode(release); err != nil {
				t.Errorf("encoding release: %v", err)
			}
		}
	}))
}

// pointAt redirects the updater's endpoint and clients at ts, restoring
// them when the test finishes.
func pointAt(t *testing.T, ts *httptest.Server) {
	t.Helper()
	origEndpoint, origClient, origDownload := releaseEndpoint, httpClient, downloadClient
	releaseEndpoint = ts.URL
	httpClient = ts.Client()
	downloadClient = ts.Client()
	t.Cleanup(func() {
		releaseEndpoint, httpClient, downloadClient = origEndpoint, origClient, origDownload
	})
}

func TestCheckVersion_UpdateAvailable(t *testing.T) {
	release := ReleaseInfo{
		TagName: "v0.3.0",
		HTMLURL: "https://github.com/irisworks/jama-mcp/releases/tag/v0.3.0",
	}
	ts := newReleaseServer(t, release, http.StatusOK)
	defer ts.Close()
	pointAt(t, ts)

	result := CheckVersion(context.Background(), "v0.2.0")
	if !result.UpdateAvailable {
		t.Error("UpdateAvailable = false, want true")
	}
	if result.LatestVersion != "0.3.0" {
		t.Errorf("LatestVersion = %q, want %q", result.LatestVersion, "0.3.0")
	}
	if result.CurrentVersion != "0.2.0" {
		t.Errorf("CurrentVersion = %q, want %q", result.CurrentVersion, "0.2.0")
	}
	if result.ReleaseURL != release.HTMLURL {
		t.Errorf("ReleaseURL = %q, want %q", result.ReleaseURL, release.HTMLURL)
	}
}

func TestCheckVersion_AlreadyLatest(t *testing.T) {
	ts := newReleaseServer(t, ReleaseInfo{TagName: "v0.2.0"}, http.StatusOK)
	defer ts.Close()
	pointAt(t, ts)

	if result := CheckVersion(context.Background(), "v0.2.0"); result.UpdateAvailable {
		t.Error("UpdateAvailable = true at latest version")
	}
}

func TestCheckVersion_NetworkErrorIsSilent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close()
	pointAt(t, ts)

	result := CheckVersion(context.Background(), "v0.2.0")
	if result.UpdateAvailable {
		t.Error("UpdateAvailable = true on network error")
	}
	if result.CurrentVersion != "0.2.0" {
		t.Errorf("CurrentVersion = %q, want %q", result.CurrentVersion, "0.2.0")
	}
}

func TestCheckVersion_APIError(t *testing.T) {
	ts := newReleaseServer(t, ReleaseInfo{}, http.StatusForbidden)
	defer ts.Close()
	pointAt(t, ts)

	if result := CheckVersion(context.Background(), "v0.2.0"); result.UpdateAvailable {
		t.Error("UpdateAvailable = true on API error")
	}
}

func TestCheckVersion_DevBuildNeverUpdates(t *testing.T) {
	ts := newReleaseServer(t, ReleaseInfo{TagName: "v9.9.9"}, http.StatusOK)
	defer ts.Close()
	pointAt(t, ts)

	if result := CheckVersion(context.Background(), "dev"); result.UpdateAvailable {
		t.Error("UpdateAvailable = true for a dev build")
	}
}

func TestSelfUpdate_AlreadyLatest(t *testing.T) {
	ts := newReleaseServer(t, ReleaseInfo{TagName: "v0.2.0"}, http.StatusOK)
	defer ts.Close()
	pointAt(t, ts)

	err := SelfUpdate(context.Background(), "v0.2.0")
	if err == nil {
		t.Fatal("expected error when already at latest version")
	}
	if got, want := err.Error(), "already at latest version (v0.2.0)"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestSelfUpdate_APIError(t *testing.T) {
	ts := newReleaseServer(t, ReleaseInfo{}, http.StatusInternalServerError)
	defer ts.Close()
	pointAt(t, ts)

	if err := SelfUpdate(context.Background(), "v0.2.0"); err == nil {
		t.Fatal("expected error on API failure")
	}
}

func TestSelfUpdate_NoMatchingAsset(t *testing.T) {
	release := ReleaseInfo{
		TagName: "v0.3.0",
		Assets: []Asset{
			{Name: "jama-mcp_0.3.0_solaris_sparc.tar.gz", BrowserDownloadURL: "https://example.com/nope"},
		},
	}
	ts := newReleaseServer(t, release, http.StatusOK)
	defer ts.Close()
	pointAt(t, ts)

	if err := SelfUpdate(context.Background(), "v0.2.0"); err == nil {
		t.Fatal("expected error when no asset matches this OS/arch")
	}
}

// tarGzWith builds a .tar.gz archive holding one file.
func tarGzWith(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	header := &tar.Header{Name: name, Mode: 0o755, Size: int64(len(content))}
	if err := tw.WriteHeader(header); err != nil {
		t.Fatalf("writing tar header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("writing tar body: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

// zipWith builds a .zip archive holding one file.
func zipWith(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	return buf.Bytes()
}

func TestExtractFromTarGz(t *testing.T) {
	content := []byte("#!/bin/sh\necho updated\n")
	archive := tarGzWith(t, "jama-mcp", content)

	data, err := extractFromTarGz(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("extractFromTarGz: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("extracted = %q, want %q", data, content)
	}
}

func TestExtractFromTarGz_BinaryMissing(t *testing.T) {
	archive := tarGzWith(t, "README.md", []byte("docs"))
	if _, err := extractFromTarGz(bytes.NewReader(archive)); err == nil {
		t.Fatal("expected error when archive lacks the binary")
	}
}

func TestExtractFromTarGz_InvalidGzip(t *testing.T) {
	if _, err := extractFromTarGz(bytes.NewReader([]byte("not gzip"))); err == nil {
		t.Fatal("expected error on invalid gzip data")
	}
}

func TestExtractFromZip(t *testing.T) {
	content := []byte("MZ fake windows binary")
	archive := zipWith(t, "jama-mcp.exe", content)

	data, err := extractFromZip(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("extractFromZip: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("extracted = %q, want %q", data, content)
	}
}

func TestExtractFromZip_BinaryMissing(t *testing.T) {
	archive := zipWith(t, "LICENSE", []byte("text"))
	if _, err := extractFromZip(bytes.NewReader(archive)); err == nil {
		t.Fatal("expected error when archive lacks the binary")
	}
}

func TestExtractBinary_DispatchesByExtension(t *testing.T) {
	content := []byte("binary data")

	data, err := extractBinary(bytes.NewReader(tarGzWith(t, "jama-mcp", content)), "jama-mcp_0.3.0_linux_amd64.tar.gz")
	if err != nil {
		t.Fatalf("extractBinary (tar.gz): %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("tar.gz extracted = %q, want %q", data, content)
	}

	data, err = extractBinary(bytes.NewReader(zipWith(t, "jama-mcp.exe", content)), "jama-mcp_0.3.0_windows_amd64.zip")
	if err != nil {
		t.Fatalf("extractBinary (zip): %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("zip extracted = %q, want %q", data, content)
	}
}
