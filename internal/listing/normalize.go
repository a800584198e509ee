package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Upstream field names, in priority order, for each canonical field.
var (
	ListFields      = []string{"dataList", "list"}
	IDFields        = []string{"prodId", "productId", "id"}
	TitleFields     = []string{"title", "prodName", "perfName", "name"}
	ImageFields     = []string{"posterImg", "imageUrl", "posterUrl", "thumbImg"}
	VenueFields     = []string{"placeName", "venueName", "hallName", "place"}
	SaleStateFields = []string{"saleStateFlag", "stateFlg"}
	RegionFields    = []string{"regionName", "region"}
	GradeFields     = []string{"gradeName", "grade"}
)

// DecodePayload parses an upstream JSON body, keeping numbers as json.Number.
func DecodePayload(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return payload, nil
}

// ExtractRecords locates the listing array inside a decoded payload.
//
// A top-level array is used as-is. Otherwise the first non-null field in
// ListFields is used; when it holds an object keyed by id instead of an array
// its values are taken. A payload without any listing field yields no
// records. Non-object entries are dropped in every case.
func ExtractRecords(payload any) []Record {
	switch v := payload.(type) {
	case []any:
		return objectsOf(v)
	case map[string]any:
		for _, field := range ListFields {
			inner, ok := v[field]
			if !ok || inner == nil {
				continue
			}
			switch iv := inner.(type) {
			case []any:
				return objectsOf(iv)
			case map[string]any:
				return objectsOf(orderedValues(iv))
			default:
				return nil
			}
		}
	}
	return nil
}

func objectsOf(items []any) []Record {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, Record(obj))
		}
	}
	return records
}

// orderedValues returns map values with integer-like keys first in numeric
// order, then the remaining keys sorted lexically.
func orderedValues(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.ParseUint(keys[i], 10, 64)
		nj, errJ := strconv.ParseUint(keys[j], 10, 64)
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	values := make([]any, 0, len(keys))
	for _, k := range keys {
		values = append(values, m[k])
	}
	return values
}

// Normalize converts raw upstream records into canonical listings. A non-empty
// requested category overrides the category detected from each record.
func Normalize(records []Record, requested Category) []Listing {
	listings := make([]Listing, 0, len(records))
	for i, rec := range records {
		listings = append(listings, NormalizeRecord(rec, i, requested))
	}
	return listings
}

// NormalizeRecord converts one record. index is used to build an id when the
// record carries no vendor id.
func NormalizeRecord(rec Record, index int, requested Category) Listing {
	vendorID := rec.String(IDFields...)

	l := Listing{
		Title:     rec.String(TitleFields...),
		ImageURL:  AbsoluteImageURL(rec.String(ImageFields...)),
		Date:      ResolveDate(rec),
		Venue:     rec.String(VenueFields...),
		Category:  ResolveCategory(requested, rec.String(TypeCodeFields...)),
		SaleState: rec.String(SaleStateFields...),
		Region:    rec.String(RegionFields...),
		Grade:     rec.String(GradeFields...),
		Raw:       rec,
	}

	if vendorID != "" {
		l.ID = IDPrefix + vendorID
		l.DetailURL = DetailURL(vendorID)
	} else {
		l.ID = IDPrefix + "idx_" + strconv.Itoa(index)
		l.DetailURL = DetailURLBase
	}
	if l.Title == "" {
		l.Title = NoTitle
	}
	if l.Venue == "" {
		l.Venue = NoVenue
	}

	return l
}

// ParseListings decodes an upstream body and normalises every record in it.
func ParseListings(data []byte, requested Category) ([]Listing, error) {
	payload, err := DecodePayload(data)
	if err != nil {
		return nil, err
	}
	return Normalize(ExtractRecords(payload), requested), nil
}
