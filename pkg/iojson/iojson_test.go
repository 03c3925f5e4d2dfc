package iojson

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"added": 2}))
	assert.Equal(t, "{\n  \"added\": 2\n}\n", out.String())
	assert.Empty(t, errOut.String())

	out.Reset()
	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"bad": make(chan int)}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), `"json_error"`)
}

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteLine(&out, struct {
		Text string `json:"text"`
	}{Text: "eggs"}))
	require.NoError(t, WriteLine(&out, struct {
		Text string `json:"text"`
	}{Text: "milk"}))
	assert.Equal(t, "{\"text\":\"eggs\"}\n{\"text\":\"milk\"}\n", out.String())
}

type doc struct {
	Name string `json:"name"`
}

func TestFileReader(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		fr := &FileReader[doc]{Stdin: strings.NewReader(`{"name":"Groceries"}`)}
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, "Groceries", got.Name)
	})

	t.Run("unknown fields", func(t *testing.T) {
		fr := &FileReader[doc]{Stdin: strings.NewReader(`{"nmae":"Groceries"}`)}
		_, err := fr.Read()
		assert.ErrorContains(t, err, "decode JSON")
	})

	t.Run("file flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name":"Work"}`), 0o644))

		fr := &FileReader[doc]{}
		var got doc
		cmd := &cli.Command{
			Name:  "import",
			Flags: []cli.Flag{fr.Flag()},
			Action: func(context.Context, *cli.Command) error {
				var err error
				got, err = fr.Read()
				return err
			},
		}
		require.NoError(t, cmd.Run(context.Background(), []string{"import", "-f", path}))
		assert.Equal(t, "Work", got.Name)
	})

	t.Run("missing file", func(t *testing.T) {
		fr := &FileReader[doc]{}
		fr.fileFlagValue = filepath.Join(t.TempDir(), "nope.json")
		_, err := fr.Read()
		assert.ErrorContains(t, err, "open file")
	})
}
