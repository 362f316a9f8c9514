package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAccountFromArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		expected string
	}{
		{name: "no account specified returns default", args: map[string]interface{}{}, expected: "default"},
		{name: "account specified returns account", args: map[string]interface{}{"account": "work"}, expected: "work"},
		{name: "empty account returns default", args: map[string]interface{}{"account": ""}, expected: "default"},
		{name: "non-string account returns default", args: map[string]interface{}{"account": 42}, expected: "default"},
		{name: "nil args", args: nil, expected: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetAccountFromArgs(tt.args))
		})
	}
}

func TestGetStringArg(t *testing.T) {
	args := map[string]interface{}{"sender": "a@b.c", "n": 1.0}

	assert.Equal(t, "a@b.c", GetStringArg(args, "sender", ""))
	assert.Equal(t, "x", GetStringArg(args, "n", "x"))
	assert.Equal(t, "y", GetStringArg(args, "missing", "y"))
}

func TestGetStringMapArg(t *testing.T) {
	args := map[string]interface{}{
		"headers": map[string]interface{}{"List-ID": "<x.example.com>", "X-Count": 3.0},
		"flat":    "nope",
	}

	assert.Equal(t, map[string]string{"List-ID": "<x.example.com>"}, GetStringMapArg(args, "headers"))
	assert.Nil(t, GetStringMapArg(args, "flat"))
	assert.Nil(t, GetStringMapArg(args, "missing"))
}
