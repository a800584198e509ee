package listing

import (
	"strings"
	"testing"
)

func TestParseListings(t *testing.T) {
	body := `{"dataList": [{"prodId": "9001", "title": "Fan Meet", "perfTypeCode": "GENRE_FAN_ALL", "dispStartDttm": "20251201"}]}`

	listings, err := ParseListings([]byte(body), CategoryFestival)
	if err != nil {
		t.Fatalf("ParseListings() error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("ParseListings() returned %d listings, want 1", len(listings))
	}

	l := listings[0]
	if l.ID != "melon_9001" {
		t.Errorf("ID = %q, want melon_9001", l.ID)
	}
	if l.Title != "Fan Meet" {
		t.Errorf("Title = %q, want Fan Meet", l.Title)
	}
	if l.Date != "2025.12.01" {
		t.Errorf("Date = %q, want 2025.12.01", l.Date)
	}
	if l.Category != CategoryFestival {
		t.Errorf("Category = %q, want festival", l.Category)
	}
	if l.DetailURL != DetailURLBase+"?prodId=9001" {
		t.Errorf("DetailURL = %q", l.DetailURL)
	}
	if l.ImageURL != PlaceholderImage {
		t.Errorf("ImageURL = %q, want placeholder", l.ImageURL)
	}
	if l.Venue != NoVenue {
		t.Errorf("Venue = %q, want %q", l.Venue, NoVenue)
	}
	if l.Raw["perfTypeCode"] != "GENRE_FAN_ALL" {
		t.Errorf("Raw not preserved: %v", l.Raw)
	}
}

func TestExtractRecords(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
	}{
		{
			name:    "dataList array",
			body:    `{"dataList": [{"prodId": "1"}, {"prodId": "2"}]}`,
			wantIDs: []string{"1", "2"},
		},
		{
			name:    "list array",
			body:    `{"list": [{"prodId": "3"}]}`,
			wantIDs: []string{"3"},
		},
		{
			name:    "dataList preferred over list",
			body:    `{"list": [{"prodId": "3"}], "dataList": [{"prodId": "4"}]}`,
			wantIDs: []string{"4"},
		},
		{
			name:    "null dataList falls through to list",
			body:    `{"dataList": null, "list": [{"prodId": "1"}]}`,
			wantIDs: []string{"1"},
		},
		{
			name:    "object keyed by id",
			body:    `{"dataList": {"20": {"prodId": "20"}, "3": {"prodId": "3"}, "x": "not an object"}}`,
			wantIDs: []string{"3", "20"},
		},
		{
			name:    "non-object entries dropped",
			body:    `{"dataList": [{"prodId": "1"}, 5, "x", null, {"prodId": "2"}]}`,
			wantIDs: []string{"1", "2"},
		},
		{
			name:    "missing listing field",
			body:    `{"result": "ok"}`,
			wantIDs: nil,
		},
		{
			name:    "scalar listing field",
			body:    `{"dataList": "none"}`,
			wantIDs: nil,
		},
		{
			name:    "top-level array",
			body:    `[{"prodId": "7"}]`,
			wantIDs: []string{"7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := DecodePayload([]byte(tt.body))
			if err != nil {
				t.Fatalf("DecodePayload() error: %v", err)
			}

			records := ExtractRecords(payload)
			if len(records) != len(tt.wantIDs) {
				t.Fatalf("ExtractRecords() returned %d records, want %d", len(records), len(tt.wantIDs))
			}
			for i, rec := range records {
				if got := rec.String("prodId"); got != tt.wantIDs[i] {
					t.Errorf("record %d prodId = %q, want %q", i, got, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestNormalizeRecord_Fallbacks(t *testing.T) {
	l := NormalizeRecord(Record{}, 4, "")

	if l.ID != "melon_idx_4" {
		t.Errorf("ID = %q, want positional fallback", l.ID)
	}
	if l.Title != NoTitle {
		t.Errorf("Title = %q, want %q", l.Title, NoTitle)
	}
	if l.Date != Unscheduled {
		t.Errorf("Date = %q, want %q", l.Date, Unscheduled)
	}
	if l.Category != CategoryConcert {
		t.Errorf("Category = %q, want concert", l.Category)
	}
	if l.ImageURL != PlaceholderImage {
		t.Errorf("ImageURL = %q, want placeholder", l.ImageURL)
	}
}

func TestNormalizeRecord_AlternateFieldNames(t *testing.T) {
	rec := Record{
		"productId":     "55",
		"prodName":      "  Symphony No. 9  ",
		"placeName":     "예술의전당",
		"perfGenreCode": "GENRE_CLA_ALL",
		"posterImg":     "/resource/image/poster.jpg",
		"stateFlg":      "SS0100",
		"regionName":    "서울",
		"gradeName":     "8세이상",
	}

	l := NormalizeRecord(rec, 0, "")

	if l.ID != "melon_55" {
		t.Errorf("ID = %q", l.ID)
	}
	if l.Title != "Symphony No. 9" {
		t.Errorf("Title = %q, want trimmed", l.Title)
	}
	if l.Venue != "예술의전당" {
		t.Errorf("Venue = %q", l.Venue)
	}
	if l.Category != CategoryClassical {
		t.Errorf("Category = %q, want classical", l.Category)
	}
	if l.ImageURL != CDNHost+"/resource/image/poster.jpg" {
		t.Errorf("ImageURL = %q", l.ImageURL)
	}
	if l.SaleState != "SS0100" || l.Region != "서울" || l.Grade != "8세이상" {
		t.Errorf("passthrough fields = %q %q %q", l.SaleState, l.Region, l.Grade)
	}
}

func TestNormalize_UniqueIDs(t *testing.T) {
	records := []Record{{"prodId": "1"}, {}, {"prodId": "2"}, {}}
	listings := Normalize(records, CategoryConcert)

	seen := make(map[string]bool)
	for _, l := range listings {
		if seen[l.ID] {
			t.Errorf("duplicate id %s", l.ID)
		}
		seen[l.ID] = true
	}
}

func TestParseListings_InvalidJSON(t *testing.T) {
	_, err := ParseListings([]byte("<html>"), CategoryConcert)
	if err == nil {
		t.Fatal("ParseListings() expected error for non-JSON body")
	}
	if !strings.Contains(err.Error(), "decoding payload") {
		t.Errorf("error = %v, want decoding payload context", err)
	}
}
