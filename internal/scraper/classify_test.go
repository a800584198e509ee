package scraper

import (
	"errors"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        PayloadKind
		wantErr     error
	}{
		{
			name:        "html listing page",
			status:      200,
			contentType: "text/html;charset=UTF-8",
			body:        `<html><head><title>티켓오픈</title></head><body><a href="?prodId=404">x</a></body></html>`,
			want:        KindHTML,
		},
		{
			name:        "json content type",
			status:      200,
			contentType: "application/json",
			body:        `{"list":[]}`,
			want:        KindJSON,
		},
		{
			name:        "json sniffed from body",
			status:      200,
			contentType: "text/html",
			body:        "  \n[{\"prodId\":1}]",
			want:        KindJSON,
		},
		{
			name:        "non-2xx status",
			status:      503,
			contentType: "text/html",
			body:        "Service Unavailable",
			wantErr:     ErrUpstreamStatus,
		},
		{
			name:        "redirect status",
			status:      302,
			contentType: "text/html",
			wantErr:     ErrUpstreamStatus,
		},
		{
			name:        "error page title",
			status:      200,
			contentType: "text/html",
			body:        `<html><head><title>404 Not Found</title></head><body></body></html>`,
			wantErr:     ErrUpstreamErrorPage,
		},
		{
			name:        "korean error heading",
			status:      200,
			contentType: "text/html",
			body:        `<html><body><h1>일시적인 오류가 발생했습니다</h1></body></html>`,
			wantErr:     ErrUpstreamErrorPage,
		},
		{
			name:        "markers only in body under a normal title",
			status:      200,
			contentType: "text/html",
			body:        `<html><head><title>멜론티켓</title></head><body><div class="box_error"><p>404 Not Found</p><p>요청하신 페이지에 오류가 발생했습니다.</p></div></body></html>`,
			wantErr:     ErrUpstreamErrorPage,
		},
		{
			name:        "marker inside script is ignored",
			status:      200,
			contentType: "text/html",
			body:        `<html><head><title>티켓오픈</title><script>var msg = "오류";</script></head><body><p>2025.10.01 오픈</p></body></html>`,
			want:        KindHTML,
		},
		{
			name:        "bare error text without title",
			status:      200,
			contentType: "text/html",
			body:        `<p>Page Not Found</p>`,
			wantErr:     ErrUpstreamErrorPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.status, tt.contentType, []byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Classify() error = %v, want %v", err, tt.wantErr)
				}
				var ue *UpstreamError
				if !errors.As(err, &ue) || ue.StatusCode != tt.status {
					t.Errorf("expected *UpstreamError with status %d, got %v", tt.status, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLen int
		suffix  bool
	}{
		{name: "short body kept", body: "oops", wantLen: 4},
		{name: "exact limit kept", body: strings.Repeat("a", MaxDiagnosticBytes), wantLen: MaxDiagnosticBytes},
		{name: "long body cut", body: strings.Repeat("a", 2000), wantLen: MaxDiagnosticBytes + 3, suffix: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate([]byte(tt.body))
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
			if strings.HasSuffix(got, "...") != tt.suffix {
				t.Errorf("suffix mismatch for %q", got[len(got)-3:])
			}
		})
	}
}

func TestTruncate_MultiByteBoundary(t *testing.T) {
	// 3-byte runes; 500 is not a multiple of 3.
	got := truncate([]byte(strings.Repeat("오", 400)))
	body := strings.TrimSuffix(got, "...")
	if !strings.HasSuffix(got, "...") {
		t.Fatal("expected truncation marker")
	}
	if len(body) != 498 {
		t.Errorf("kept %d bytes, want 498", len(body))
	}
}

func TestDiagnostic(t *testing.T) {
	err := &UpstreamError{StatusCode: 500, Body: "boom", Err: ErrUpstreamStatus}
	if got := Diagnostic(err); got != "boom" {
		t.Errorf("Diagnostic() = %q, want boom", got)
	}
	if got := Diagnostic(errors.New("plain")); got != "" {
		t.Errorf("Diagnostic(plain) = %q, want empty", got)
	}
}
