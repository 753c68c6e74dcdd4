package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relmap/internal/dbcontext"
	"github.com/roach88/relmap/internal/relation"
	"github.com/roach88/relmap/internal/schema"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(ColumnsResult{Table: "employees", Columns: []string{"id", "name"}})
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ColumnsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"id", "name"}, resp.Data.Columns)
}

func TestOutputFormatter_TextUsesRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success(ColumnsResult{Table: "employees", Columns: []string{"id", "name"}}))
	assert.Equal(t, "id\nname\n", buf.String())
}

func TestOutputFormatter_TextFallsBackToPrintln(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("nothing to do"))
	assert.Equal(t, "nothing to do\n", buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeStore, "insert failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeStore, resp.Error.Code)
	assert.Equal(t, "insert failed", resp.Error.Message)
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error(ErrCodeGeneric, "load failed", map[string]string{"table": "employees"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]: load failed")
	assert.Contains(t, buf.String(), "Details:")
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
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("added %d records", 3)

			assert.Empty(t, buf.String(), "diagnostics never go to stdout")
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "added 3 records")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &dbcontext.ValidationError{}, ErrCodeValidation},
		{"integrity", &relation.IntegrityError{}, ErrCodeIntegrity},
		{"schema", &schema.SchemaError{}, ErrCodeSchema},
		{"store", &dbcontext.StoreError{Op: "insert", Err: errors.New("x")}, ErrCodeStore},
		{"wrapped", WrapExitError(ExitFailure, "save", &dbcontext.ValidationError{}), ErrCodeValidation},
		{"command", NewExitError(ExitCommandError, "no database"), ErrCodeConfig},
		{"other", errors.New("boom"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(engineExitError("load", &schema.SchemaError{})))
	assert.Equal(t, ExitFailure, GetExitCode(engineExitError("save", &relation.IntegrityError{})))
}

func TestReport_ValidationDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WrapExitError(ExitFailure, "failed to save", &dbcontext.ValidationError{
		Records: []dbcontext.RecordError{{Collection: "Employees", Index: 0, Key: "10", Problems: []string{"Name: failed required"}}},
	})

	Report(buf, "json", false, err)

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string                  `json:"code"`
			Details []dbcontext.RecordError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "Employees", resp.Error.Details[0].Collection)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stderr closed") }

func TestReport_LogsWriteFailure(t *testing.T) {
	logs := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	Report(failingWriter{}, "json", false, errors.New("boom"))

	assert.Contains(t, logs.String(), "failed to write error report")
	assert.Contains(t, logs.String(), "stderr closed")
	assert.Contains(t, logs.String(), "cause=boom")
}
