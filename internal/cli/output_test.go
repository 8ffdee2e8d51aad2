package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartkeeper/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("NOT_FOUND", "unknown aisle", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "unknown aisle", resp.Error.Message)
}

func TestOutputFormatter_TextErrorGoesToErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "text",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	err := formatter.Error("CONSTRAINT_VIOLATION", "duplicate name", []string{"Milk"})
	require.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error [CONSTRAINT_VIOLATION]: duplicate name")
	assert.Contains(t, errOut.String(), "Details:")
}

func TestOutputFormatter_Emit(t *testing.T) {
	text := func(w io.Writer) { fmt.Fprintln(w, "Created aisle") }

	buf := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: buf}).Emit(map[string]int{"n": 1}, text))
	assert.Equal(t, "Created aisle\n", buf.String())

	buf.Reset()
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: buf}).Emit(map[string]int{"n": 1}, text))
	assert.JSONEq(t, `{"status":"ok","data":{"n":1}}`, buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Importing %s", "groceries.txt")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Importing groceries.txt")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitUnavailable, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitUnavailable, "down"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantTag  string
	}{
		{"not_found", store.NotFound("aisle", "a1"), ExitCommandError, "NOT_FOUND"},
		{"constraint", store.ConstraintViolation("item", "duplicate name", nil), ExitCommandError, "CONSTRAINT_VIOLATION"},
		{"unavailable", store.BackendUnavailable("remote"), ExitUnavailable, "BACKEND_UNAVAILABLE"},
		{"other", errors.New("disk I/O error"), ExitFailure, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storeError("failed", tt.err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Equal(t, tt.wantTag, ErrorCode(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestErrorCode_Usage(t *testing.T) {
	assert.Equal(t, ErrCodeUsage, ErrorCode(NewExitError(ExitCommandError, "refusing to reset without --yes")))
	assert.Equal(t, ErrCodeGeneric, ErrorCode(NewExitError(ExitFailure, "2 item(s) failed to import")))
}
