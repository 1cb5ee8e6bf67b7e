package hostpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{name: "plain", pattern: "web1", wantHost: "web1"},
		{name: "fqdn with port", pattern: "web1.example.com:2222", wantHost: "web1.example.com", wantPort: 2222},
		{name: "range with port", pattern: "web[1:3]:22", wantHost: "web[1:3]", wantPort: 22},
		{name: "range without port", pattern: "web[1:3]", wantHost: "web[1:3]"},
		{name: "bracketed ipv6", pattern: "[fe80::1]:8022", wantHost: "fe80::1", wantPort: 8022},
		{name: "bare ipv6", pattern: "fe80::1", wantHost: "fe80::1"},
		{name: "ipv4", pattern: "10.0.0.1:22", wantHost: "10.0.0.1", wantPort: 22},
		{name: "trimmed", pattern: "  web1  ", wantHost: "web1"},
		{name: "empty", pattern: "", wantErr: true},
		{name: "bad port", pattern: "web1:ssh", wantErr: true},
		{name: "port zero", pattern: "web1:0", wantErr: true},
		{name: "port too large", pattern: "web1:70000", wantErr: true},
		{name: "whitespace", pattern: "web 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := ParseAddress(tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []string
		wantErr bool
	}{
		{name: "no range", pattern: "web1", want: []string{"web1"}},
		{name: "numeric", pattern: "web[1:3]", want: []string{"web1", "web2", "web3"}},
		{name: "zero padded", pattern: "web[08:11]", want: []string{"web08", "web09", "web10", "web11"}},
		{name: "step", pattern: "web[1:7:3]", want: []string{"web1", "web4", "web7"}},
		{name: "implicit begin", pattern: "web[:2]", want: []string{"web0", "web1", "web2"}},
		{name: "letters", pattern: "db-[a:c].example.com", want: []string{"db-a.example.com", "db-b.example.com", "db-c.example.com"}},
		{name: "multiple ranges", pattern: "r[1:2]n[a:b]", want: []string{"r1na", "r1nb", "r2na", "r2nb"}},
		{name: "single value", pattern: "web[5:5]", want: []string{"web5"}},
		{name: "reversed", pattern: "web[3:1]", wantErr: true},
		{name: "reversed letters", pattern: "web[c:a]", wantErr: true},
		{name: "missing end", pattern: "web[1:]", wantErr: true},
		{name: "bad step", pattern: "web[1:3:0]", wantErr: true},
		{name: "not a range", pattern: "web[1]", wantErr: true},
		{name: "mixed", pattern: "web[1:c]", wantErr: true},
		{name: "unequal padding", pattern: "web[01:100]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRange(tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand(t *testing.T) {
	e := NewExpander()

	addrs, err := e.Expand("web[1:2]:2222")
	require.NoError(t, err)
	assert.Equal(t, []Address{{Name: "web1", Port: 2222}, {Name: "web2", Port: 2222}}, addrs)

	addrs, err = e.Expand("[::1]:22")
	require.NoError(t, err)
	assert.Equal(t, []Address{{Name: "::1", Port: 22}}, addrs)

	_, err = e.Expand("web[2:1]")
	assert.Error(t, err)
}

func TestHasRange(t *testing.T) {
	assert.True(t, HasRange("web[1:2]"))
	assert.False(t, HasRange("web1"))
	assert.False(t, HasRange("web]1["))
}
