package batch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		paramName string
		want      []string
		wantErr   bool
	}{
		{
			name:      "single string",
			input:     "test123",
			paramName: "testParam",
			want:      []string{"test123"},
			wantErr:   false,
		},
		{
			name:      "array of strings",
			input:     []interface{}{"id1", "id2", "id3"},
			paramName: "testParam",
			want:      []string{"id1", "id2", "id3"},
			wantErr:   false,
		},
		{
			name:      "nil input",
			input:     nil,
			paramName: "testParam",
			want:      nil,
			wantErr:   true,
		},
		{
			name:      "empty string",
			input:     "",
			paramName: "testParam",
			want:      nil,
			wantErr:   true,
		},
		{
			name:      "empty array",
			input:     []interface{}{},
			paramName: "testParam",
			want:      nil,
			wantErr:   true,
		},
		{
			name:      "array with non-string",
			input:     []interface{}{"id1", 123, "id3"},
			paramName: "testParam",
			want:      nil,
			wantErr:   true,
		},
		{
			name:      "array with empty string",
			input:     []interface{}{"id1", "", "id3"},
			paramName: "testParam",
			want:      nil,
			wantErr:   true,
		},
		{
			name:      "invalid type",
			input:     123,
			paramName: "testParam",
			want:      nil,
			wantErr:   true,
		},
		{
			name:      "JSON string array",
			input:     `["id1", "id2", "id3"]`,
			paramName: "testParam",
			want:      []string{"id1", "id2", "id3"},
			wantErr:   false,
		},
		{
			name:      "JSON string array with filenames",
			input:     `["document1.pdf", "document2.pdf", "document3.pdf"]`,
			paramName: "testParam",
			want:      []string{"document1.pdf", "document2.pdf", "document3.pdf"},
			wantErr:   false,
		},
		{
			name:      "JSON string single element array",
			input:     `["single.pdf"]`,
			paramName: "testParam",
			want:      []string{"single.pdf"},
			wantErr:   false,
		},
		{
			name:      "JSON string empty array",
			input:     `[]`,
			paramName: "testParam",
			want:      nil,
			wantErr:   true,
		},
		{
			name:      "invalid JSON string",
			input:     `[invalid json`,
			paramName: "testParam",
			want:      []string{`[invalid json`},
			wantErr:   false,
		},
		{
			name:      "string starting with bracket (not JSON)",
			input:     `[test] file.pdf`,
			paramName: "testParam",
			want:      []string{`[test] file.pdf`},
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseStringOrArray() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !stringSliceEqual(got, tt.want) {
				t.Errorf("ParseStringOrArray() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		{ID: "id1", Status: StatusSuccess, Result: map[string]int{"stories": 3}},
		{ID: "id2", Status: StatusSuccess, Result: "ok"},
		{ID: "id3", Status: StatusError, Error: "Something went wrong"},
	}

	output, err := FormatResults(results)
	if err != nil {
		t.Fatalf("FormatResults() error = %v", err)
	}

	var br struct {
		Total      int `json:"total"`
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
		Results    []struct {
			ID     string          `json:"id"`
			Result json.RawMessage `json:"result"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(output), &br); err != nil {
		t.Fatalf("Failed to parse output JSON: %v", err)
	}

	if br.Total != 3 || br.Successful != 2 || br.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", br.Total, br.Successful, br.Failed)
	}
	if len(br.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(br.Results))
	}
	if got := string(br.Results[0].Result); got != `{"stories":3}` {
		t.Errorf("Results[0].Result = %s, want structured JSON", got)
	}
}

func TestFormatResults_Unencodable(t *testing.T) {
	_, err := FormatResults([]Result{NewSuccessResult("x", make(chan int))})
	if err == nil {
		t.Error("expected an encoding error")
	}
}

func TestProcessBatch(t *testing.T) {
	ids := []string{"id1", "id2", "id3"}

	fn := func(_ context.Context, id string) (any, error) {
		if id == "id2" {
			return nil, errors.New("failed to process id2")
		}
		return "processed " + id, nil
	}

	results := ProcessBatch(context.Background(), ids, fn)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Status != StatusSuccess || results[0].Result != "processed id1" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Status != StatusError || results[1].Error != "failed to process id2" {
		t.Errorf("results[1] = %+v", results[1])
	}
	if results[2].Status != StatusSuccess || results[2].Result != "processed id3" {
		t.Errorf("results[2] = %+v", results[2])
	}
}

func TestProcessBatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fn := func(_ context.Context, id string) (any, error) {
		calls++
		cancel()
		return id, nil
	}

	results := ProcessBatch(ctx, []string{"a", "b", "c"}, fn)

	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	if results[0].Status != StatusSuccess {
		t.Errorf("results[0].Status = %s, want success", results[0].Status)
	}
	for _, r := range results[1:] {
		if r.Status != StatusError || r.Error != context.Canceled.Error() {
			t.Errorf("result %s = %+v, want cancellation error", r.ID, r)
		}
	}
}

func TestNewSuccessResult(t *testing.T) {
	result := NewSuccessResult("test-id", "test message")

	if result.ID != "test-id" {
		t.Errorf("ID = %s, want test-id", result.ID)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Status = %s, want success", result.Status)
	}
	if result.Result != "test message" {
		t.Errorf("Result = %v, want 'test message'", result.Result)
	}
	if result.Error != "" {
		t.Errorf("Error should be empty, got %s", result.Error)
	}
}

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("test-id", errors.New("test error"))

	if result.ID != "test-id" {
		t.Errorf("ID = %s, want test-id", result.ID)
	}
	if result.Status != StatusError {
		t.Errorf("Status = %s, want error", result.Status)
	}
	if result.Error != "test error" {
		t.Errorf("Error = %s, want 'test error'", result.Error)
	}
	if result.Result != nil {
		t.Errorf("Result should be nil, got %v", result.Result)
	}
}

// Helper function to compare string slices
func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
