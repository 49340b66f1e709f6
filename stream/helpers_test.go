package stream

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

// --- getStringAttr Tests ---

func TestGetStringAttr_ExistingString(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"path": events.NewStringAttribute("news/content/d1"),
	}

	result := getStringAttr(image, "path")
	if result != "news/content/d1" {
		t.Errorf("expected 'news/content/d1', got %q", result)
	}
}

func TestGetStringAttr_MissingKey(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"other": events.NewStringAttribute("value"),
	}

	if result := getStringAttr(image, "path"); result != "" {
		t.Errorf("expected empty string for missing key, got %q", result)
	}
}

func TestGetStringAttr_NilImage(t *testing.T) {
	var image map[string]events.DynamoDBAttributeValue

	if result := getStringAttr(image, "path"); result != "" {
		t.Errorf("expected empty string for nil image, got %q", result)
	}
}

func TestGetStringAttr_NumberAttribute(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"path": events.NewNumberAttribute("42"),
	}

	if result := getStringAttr(image, "path"); result != "" {
		t.Errorf("expected empty string for number attribute, got %q", result)
	}
}

func TestGetStringAttr_UnicodeValue(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"path": events.NewStringAttribute("日本語/content/d1"),
	}

	if result := getStringAttr(image, "path"); result != "日本語/content/d1" {
		t.Errorf("expected unicode path, got %q", result)
	}
}

// --- getStringMapAttr Tests ---

func TestGetStringMapAttr_ValidMap(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"value": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"title":   events.NewStringAttribute("T"),
			"content": events.NewStringAttribute("C"),
		}),
	}

	result := getStringMapAttr(image, "value")
	if len(result) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(result))
	}
	if result["title"] != "T" || result["content"] != "C" {
		t.Errorf("unexpected fields %v", result)
	}
}

func TestGetStringMapAttr_SkipsNonStrings(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"value": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"title": events.NewStringAttribute("T"),
			"count": events.NewNumberAttribute("3"),
		}),
	}

	result := getStringMapAttr(image, "value")
	if len(result) != 1 {
		t.Errorf("expected 1 field, got %d", len(result))
	}
	if _, ok := result["count"]; ok {
		t.Error("expected number member to be skipped")
	}
}

func TestGetStringMapAttr_MissingKey(t *testing.T) {
	result := getStringMapAttr(map[string]events.DynamoDBAttributeValue{}, "value")
	if result == nil {
		t.Fatal("expected non-nil fields for missing key")
	}
	if len(result) != 0 {
		t.Errorf("expected empty fields, got %v", result)
	}
}

func TestGetStringMapAttr_NonMapAttribute(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"value": events.NewStringAttribute("not a map"),
	}

	if result := getStringMapAttr(image, "value"); len(result) != 0 {
		t.Errorf("expected empty fields for non-map attribute, got %v", result)
	}
}

// --- processRecord Tests ---

func TestProcessRecord_SkipsNonInsertEvents(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
	}{
		{"MODIFY", "MODIFY"},
		{"REMOVE", "REMOVE"},
		{"Unknown", "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(nil, nil)
			record := events.DynamoDBEventRecord{
				EventName: tt.eventName,
				Change: events.DynamoDBStreamRecord{
					NewImage: map[string]events.DynamoDBAttributeValue{
						"path": events.NewStringAttribute("news/content/d1"),
					},
				},
			}

			// nil store is never touched for skipped events
			if err := h.processRecord(context.Background(), record); err != nil {
				t.Errorf("expected no error for %s event, got %v", tt.eventName, err)
			}
		})
	}
}

func TestProcessRecord_SkipsNonContentPaths(t *testing.T) {
	paths := []string{
		"users/u1",
		"news/meta-data/d1",
		"news/content",
		"news/content/d1/extra",
		"",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			h := NewHandler(nil, nil)
			record := events.DynamoDBEventRecord{
				EventName: "INSERT",
				Change: events.DynamoDBStreamRecord{
					NewImage: map[string]events.DynamoDBAttributeValue{
						"path": events.NewStringAttribute(path),
					},
				},
			}

			if err := h.processRecord(context.Background(), record); err != nil {
				t.Errorf("expected no error for path %q, got %v", path, err)
			}
		})
	}
}

func TestRecordPath(t *testing.T) {
	tests := []struct {
		name     string
		change   events.DynamoDBStreamRecord
		expected string
	}{
		{
			name: "from path attribute",
			change: events.DynamoDBStreamRecord{
				NewImage: map[string]events.DynamoDBAttributeValue{
					"path": events.NewStringAttribute("news/content/d1"),
				},
			},
			expected: "news/content/d1",
		},
		{
			name: "from sharded key",
			change: events.DynamoDBStreamRecord{
				Keys: map[string]events.DynamoDBAttributeValue{
					"pk": events.NewStringAttribute("news/content#03"),
					"sk": events.NewStringAttribute("d1"),
				},
			},
			expected: "news/content/d1",
		},
		{
			name: "missing sort key",
			change: events.DynamoDBStreamRecord{
				Keys: map[string]events.DynamoDBAttributeValue{
					"pk": events.NewStringAttribute("news/content"),
				},
			},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recordPath(tt.change); got.String() != tt.expected {
				t.Errorf("recordPath() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// --- Benchmark Tests ---

func BenchmarkGetStringMapAttr(b *testing.B) {
	image := map[string]events.DynamoDBAttributeValue{
		"value": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"docID":   events.NewStringAttribute("12345678-1234-1234-1234-123456789012"),
			"title":   events.NewStringAttribute("Glass"),
			"content": events.NewStringAttribute("Rinse jars first."),
		}),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		getStringMapAttr(image, "value")
	}
}
