package batch

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one operation in a batch.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult aggregates the results of a batch operation.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter that can be either a single string or an array of strings
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var result []string

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		result = []string{v}
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if str == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			result = append(result, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	return result, nil
}

// Aggregate counts the outcomes of results.
func Aggregate(results []Result) BatchResult {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults renders the aggregated results as indented JSON.
func FormatResults(results []Result) (string, error) {
	b, err := json.MarshalIndent(Aggregate(results), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode batch result: %w", err)
	}
	return string(b), nil
}

// ProcessBatch runs fn for every ID in order. Once ctx is done the remaining
// IDs fail with the context error instead of being processed.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (any, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}

	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id string, result any) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: result,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
