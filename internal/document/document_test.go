package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/config-composer/internal/compose"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Format
		wantErr error
	}{
		{input: "yaml", want: FormatYAML},
		{input: "YML", want: FormatYAML},
		{input: " json ", want: FormatJSON},
		{input: "toml", want: FormatTOML},
		{input: "ini", wantErr: ErrUnsupportedFormat},
		{input: "", wantErr: ErrUnsupportedFormat},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseFormat(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	got, err := FormatFromPath("/tmp/jest.config.yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, got)

	_, err = FormatFromPath("/tmp/jestconfig")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeProducesStringKeyedMappings(t *testing.T) {
	t.Parallel()

	want := map[string]any{
		"coverageThreshold": map[string]any{
			"global": map[string]any{"lines": 75, "statements": 75},
		},
	}

	yamlDoc := []byte("coverageThreshold:\n  global:\n    lines: 75\n    statements: 75\n")
	got, err := Decode(yamlDoc, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	jsonDoc := []byte(`{"coverageThreshold":{"global":{"lines":75,"statements":75}}}`)
	got, err = Decode(jsonDoc, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"coverageThreshold": map[string]any{
			"global": map[string]any{"lines": 75.0, "statements": 75.0},
		},
	}, got)

	tomlDoc := []byte("[coverageThreshold.global]\nlines = 75\nstatements = 75\n")
	got, err = Decode(tomlDoc, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"coverageThreshold": map[string]any{
			"global": map[string]any{"lines": int64(75), "statements": int64(75)},
		},
	}, got)
}

func TestDecodeTOMLArrayOfTables(t *testing.T) {
	t.Parallel()

	doc := []byte("[[projects]]\ndisplayName = \"unit\"\n\n[[projects]]\ndisplayName = \"lint\"\n")
	got, err := Decode(doc, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"projects": []any{
			map[string]any{"displayName": "unit"},
			map[string]any{"displayName": "lint"},
		},
	}, got)
}

func TestDecodeEmptyInput(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatYAML, FormatJSON} {
		got, err := Decode([]byte("  \n"), format)
		require.NoError(t, err)
		assert.Nil(t, got, "format %s", format)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("a: [1"), FormatYAML)
	assert.Error(t, err)

	_, err = Decode([]byte("{"), FormatJSON)
	assert.Error(t, err)

	_, err = Decode([]byte("a = "), FormatTOML)
	assert.Error(t, err)

	_, err = Decode([]byte("a: 1"), Format("ini"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeMappingRejectsNonMappings(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"- a\n- b\n", "42\n", ""} {
		_, err := DecodeMapping([]byte(doc), FormatYAML)
		assert.ErrorIs(t, err, compose.ErrInvalidInput, "document %q", doc)
	}
}

func TestReadMappingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "base.yaml")
	if err := os.WriteFile(path, []byte("testEnvironment: jsdom\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := ReadMappingFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"testEnvironment": "jsdom"}, got)

	doc, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, got, doc)

	_, err = ReadMappingFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestEncodeRoundTripsThroughCompose(t *testing.T) {
	t.Parallel()

	merged := map[string]any{
		"testEnvironment": "jsdom",
		"coverageThreshold": map[string]any{
			"global": map[string]any{"lines": 75, "statements": 75},
		},
	}

	out, err := Encode(merged, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "coverageThreshold:\n  global:\n    lines: 75\n    statements: 75\ntestEnvironment: jsdom\n", string(out))

	out, err = Encode(merged, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"testEnvironment":"jsdom","coverageThreshold":{"global":{"lines":75,"statements":75}}}`, string(out))

	out, err = Encode(merged, FormatTOML)
	require.NoError(t, err)
	decoded, err := Decode(out, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, "jsdom", decoded.(map[string]any)["testEnvironment"])

	_, err = Encode(merged, Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseAssignment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw       string
		wantKey   string
		wantValue any
	}{
		{raw: "coverageThreshold.global.lines=75", wantKey: "coverageThreshold.global.lines", wantValue: 75},
		{raw: "verbose=true", wantKey: "verbose", wantValue: true},
		{raw: "testEnvironment=jsdom", wantKey: "testEnvironment", wantValue: "jsdom"},
		{raw: "roots=[src, lib]", wantKey: "roots", wantValue: []any{"src", "lib"}},
		{raw: "displayName=\"a=b\"", wantKey: "displayName", wantValue: "a=b"},
		{raw: "bail=", wantKey: "bail", wantValue: nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			key, value, err := ParseAssignment(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKey, key)
			assert.Equal(t, tc.wantValue, value)
		})
	}

	for _, raw := range []string{"novalue", "=5", "roots=[a"} {
		_, _, err := ParseAssignment(raw)
		assert.ErrorIs(t, err, ErrInvalidAssignment, "assignment %q", raw)
	}
}

func TestAssignments(t *testing.T) {
	t.Parallel()

	got, err := Assignments([]string{"coverageThreshold.global.lines=75", "coverageThreshold.global.statements=75"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"coverageThreshold.global.lines":      75,
		"coverageThreshold.global.statements": 75,
	}, got)

	_, err = Assignments([]string{"broken"})
	assert.ErrorIs(t, err, ErrInvalidAssignment)
}
