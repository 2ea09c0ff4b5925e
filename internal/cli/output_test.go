package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError_Error(t *testing.T) {
	plain := NewExitError(ExitFailure, "scenario failed")
	assert.Equal(t, "scenario failed", plain.Error())

	wrapped := WrapExitError(ExitCommandError, "loading scenario", errors.New("no such file"))
	assert.Equal(t, "loading scenario: no such file", wrapped.Error())
	assert.Equal(t, "no such file", wrapped.Unwrap().Error())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "exit error failure",
			err:  NewExitError(ExitFailure, "failed"),
			want: ExitFailure,
		},
		{
			name: "exit error command error",
			err:  NewExitError(ExitCommandError, "bad args"),
			want: ExitCommandError,
		},
		{
			name: "wrapped exit error",
			err:  WrapExitError(ExitCommandError, "outer", errors.New("inner")),
			want: ExitCommandError,
		},
		{
			name: "plain error defaults to failure",
			err:  errors.New("something broke"),
			want: ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestRenderResult_JSONPassthrough(t *testing.T) {
	var buf strings.Builder
	renderResult(&buf, "json", `[{"id":1,"name":"alice"}]`)
	assert.Equal(t, "[{\"id\":1,\"name\":\"alice\"}]\n", buf.String())
}

func TestRenderTable(t *testing.T) {
	tests := []struct {
		name   string
		result string
		want   string
	}{
		{
			name:   "empty result set",
			result: `[]`,
			want:   "(no rows)\n",
		},
		{
			name:   "single row",
			result: `[{"1":1}]`,
			want:   "1\n-\n1\n",
		},
		{
			name:   "columns sorted and padded",
			result: `[{"name":"alice","id":1},{"name":"bo","id":22}]`,
			want:   "id  name\n--  -----\n1   alice\n22  bo\n",
		},
		{
			name:   "null cell",
			result: `[{"id":1,"nickname":null}]`,
			want:   "id  nickname\n--  --------\n1   NULL\n",
		},
		{
			name:   "non result set printed verbatim",
			result: "not json at all",
			want:   "not json at all\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			renderTable(&buf, tt.result)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRenderTable_WideRunes(t *testing.T) {
	var buf strings.Builder
	renderTable(&buf, `[{"name":"日本語"},{"name":"ab"}]`)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	// The wide row sets the column width at six cells.
	assert.Equal(t, "name", lines[0])
	assert.Equal(t, "------", lines[1])
	assert.Equal(t, "日本語", lines[2])
	assert.Equal(t, "ab", lines[3])
}

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"abc", 3},
		{"日本語", 6},
		{"a日b", 4},
		{"ｆｕｌｌ", 8},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, displayWidth(tt.input), "displayWidth(%q)", tt.input)
	}
}
