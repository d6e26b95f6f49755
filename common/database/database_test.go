package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddr(t *testing.T) {
	tests := []struct {
		dsn     string
		want    string
		wantErr bool
	}{
		{dsn: "clickhouse://127.0.0.1:9000?dial_timeout=10s", want: "127.0.0.1:9000"},
		{dsn: "127.0.0.1:9000", want: "127.0.0.1:9000"},
		{dsn: "ch.internal:9440", want: "ch.internal:9440"},
		{dsn: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := Addr(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
