package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerlens/internal/payload"
)

func TestTableHandle(t *testing.T) {
	wrap := func(projects payload.Value) payload.Value {
		return payload.Object{"fields": payload.Object{"projects": projects}}
	}

	tests := []struct {
		name    string
		content payload.Value
		want    string
		wantErr string
	}{
		{"plain string", wrap(str("0xt1")), "0xt1", ""},
		{"id object", wrap(payload.Object{"id": str("0xt2")}), "0xt2", ""},
		{"uid object", wrap(payload.Object{"id": payload.Object{"id": str("0xt3")}}), "0xt3", ""},
		{"fields wrapped uid", wrap(tableRef("0xt4")), "0xt4", ""},
		{"flat registry", payload.Object{"projects": str("0xt5")}, "0xt5", ""},
		{"number", wrap(num("42")), "", "no recognizable handle"},
		{"blank string", wrap(str("  ")), "", "no recognizable handle"},
		{"object without id", wrap(payload.Object{"size": str("3")}), "", "no recognizable handle"},
		{"null field", wrap(payload.Null{}), "", "no recognizable handle"},
		{"absent field", payload.Object{"fields": payload.Object{"other": str("0x1")}}, "", `no "projects" attribute`},
		{"not an object", str("0xreg"), "", "no fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tableHandle("0xreg", tt.content, "projects")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsMalformedContainer(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
