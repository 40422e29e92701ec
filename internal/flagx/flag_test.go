package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"separate value", []string{"-c", "conf.json", "-a", "localhost"}, []string{"-c"}, []string{"-c", "conf.json"}},
		{"equals form", []string{"--config=alt.json", "-a", "x"}, []string{"--config"}, []string{"--config=alt.json"}},
		{"unknown flags ignored", []string{"-x", "1", "--y=2", "positional"}, []string{"-c"}, []string{}},
		{"flag without value at end", []string{"-c"}, []string{"-c"}, []string{"-c"}},
		{"next dash token is not a value", []string{"-c", "-notvalue"}, []string{"-c"}, []string{"-c"}},
		{"equals value may start with dash", []string{"--config=--weird.json"}, []string{"--config"}, []string{"--config=--weird.json"}},
		{"several allowed flags keep order", []string{"-a", "host:1", "-c", "c.json", "--other", "x"}, []string{"-c", "-a"}, []string{"-a", "host:1", "-c", "c.json"}},
		{"repeated flag preserved", []string{"-l", "100", "-l", "200"}, []string{"-l"}, []string{"-l", "100", "-l", "200"}},
		{"empty args", []string{}, []string{"-c"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigFile(t *testing.T) {
	assert.Equal(t, "/p/short.json", ConfigFile([]string{"-c", "/p/short.json"}))
	assert.Equal(t, "/p/long.json", ConfigFile([]string{"-config", "/p/long.json"}))
	assert.Equal(t, "/p/eq.json", ConfigFile([]string{"-a", "x", "--config=/p/eq.json"}))
	assert.Equal(t, "/p/2.json", ConfigFile([]string{"-c", "/p/1.json", "-config", "/p/2.json"}))
	assert.Empty(t, ConfigFile([]string{"-x", "1", "-y", "2"}))
}
