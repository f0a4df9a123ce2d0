package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectsText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDialectsCommand(newTestRootOptions("text", ""))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "mysql      relational aliases: mariadb\n")
	assert.Contains(t, out, "oracle     relational\n")
	assert.Contains(t, out, "mongo      document   aliases: mongodb\n")
	assert.Contains(t, out, "elastic7   search     aliases: elasticsearch, elasticsearch7, es7, es\n")
}

func TestDialectsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDialectsCommand(newTestRootOptions("json", ""))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []DialectInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 8)
	assert.Equal(t, DialectInfo{Name: "postgres", Family: "relational", Aliases: []string{"postgresql", "pg"}}, resp.Data[1])
}
