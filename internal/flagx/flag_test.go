package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "repeated flag preserved in order",
			args:         []string{"-s", "one", "-t", "5", "-s", "two"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s", "one", "-s", "two"},
		},
		{
			name:         "empty args",
			args:         nil,
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	assert.Equal(t, "/etc/gophauth.json", ConfigFileFlag([]string{"-c", "/etc/gophauth.json"}))
	assert.Equal(t, "/etc/long.json", ConfigFileFlag([]string{"-a", ":1", "-config", "/etc/long.json"}))
	assert.Equal(t, "/b.json", ConfigFileFlag([]string{"-c", "/a.json", "-config=/b.json"}))
	assert.Empty(t, ConfigFileFlag([]string{"-x", "1"}))
}

func TestEnvFileFlag(t *testing.T) {
	assert.Equal(t, "prod.env", EnvFileFlag([]string{"-env", "prod.env", "-c", "x.json"}))
	assert.Empty(t, EnvFileFlag(nil))
}
