package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInspect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<title>Dark Trap Beat</title>
			<meta property="og:title" content="Dark Trap Beat 140bpm">
			<meta property="og:site_name" content="SoundCloud">
			<meta property="og:description" content="A dark trap instrumental">
		</head><body>ok</body></html>`)
	}))
	defer server.Close()

	info, err := Inspect(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if info.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", info.StatusCode)
	}
	if info.Title != "Dark Trap Beat 140bpm" {
		t.Errorf("Expected og:title to win, got %q", info.Title)
	}
	if info.SiteName != "SoundCloud" {
		t.Errorf("Expected site name SoundCloud, got %q", info.SiteName)
	}
	if info.Description != "A dark trap instrumental" {
		t.Errorf("Unexpected description: %q", info.Description)
	}
}

func TestInspectFallsBackToTitleTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<title> Plain Title </title>
			<meta name="description" content="meta description">
		</head><body></body></html>`)
	}))
	defer server.Close()

	info, err := Inspect(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if info.Title != "Plain Title" {
		t.Errorf("Expected trimmed title tag, got %q", info.Title)
	}
	if info.Description != "meta description" {
		t.Errorf("Expected meta description fallback, got %q", info.Description)
	}
}

func TestInspectNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	info, err := Inspect(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", info.StatusCode)
	}
	if info.Title != "" {
		t.Errorf("Expected no metadata for non-200 response, got title %q", info.Title)
	}
}

func TestInspectFollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Final</title></head></html>`)
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer redirector.Close()

	info, err := Inspect(context.Background(), redirector.URL)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.URL != redirector.URL {
		t.Errorf("Expected original URL to be kept, got %q", info.URL)
	}
	if info.FinalURL != target.URL {
		t.Errorf("Expected final URL %q, got %q", target.URL, info.FinalURL)
	}
	if info.Title != "Final" {
		t.Errorf("Expected title from the redirect target, got %q", info.Title)
	}
}

func TestInspectRejectsBadScheme(t *testing.T) {
	if _, err := Inspect(context.Background(), "ftp://example.com/file"); err == nil {
		t.Error("Expected error for unsupported scheme")
	}
}
